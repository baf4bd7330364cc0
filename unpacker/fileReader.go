package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dragon-exp/unpacker_go/pkg/midas"
)

type FileReader struct {
	File     io.Reader
	EvtCount int
}

func NewFileReader(file io.Reader) *FileReader {
	return &FileReader{File: file, EvtCount: -1}
}

// getNextEvent returns the next event to process, honoring the skip and max
// events settings. io.EOF marks the end of the input.
func (f *FileReader) getNextEvent() (*midas.Event, error) {
	for {
		event, err := midas.ReadEventFromReader(f.File)
		if err != nil {
			return nil, err
		}
		f.EvtCount++
		if f.EvtCount >= configuration.MaxEvents {
			if VerbosityLevel > 0 {
				logger.Info("Max events reached", "fileReader")
			}
			return nil, io.EOF
		}
		if f.EvtCount < configuration.Skip {
			if VerbosityLevel > 1 {
				message := fmt.Sprintf("Skipping event %d with serial %d", f.EvtCount, event.Header.SerialNumber)
				logger.Info(message, "fileReader")
			}
			continue
		}
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Reading event %d: %v, serial %d", f.EvtCount, event.EventID(), event.Header.SerialNumber)
			logger.Info(message, "fileReader")
		}
		return event, nil
	}
}

// countEvents returns the number of events in the file and the run number of
// its first begin of run event (-1 if there is none). The file is rewound.
func countEvents(file *os.File) (int, int, error) {
	evtCount := 0
	runNumber := -1
	for {
		event, err := midas.ReadEventFromReader(file)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				errMessage := fmt.Errorf("error reading header counting events: %w", err)
				logger.Error(errMessage.Error())
			}
			break
		}
		if event.EventID() == midas.BOR && runNumber < 0 {
			runNumber = int(event.Header.SerialNumber)
		}
		evtCount++
	}
	// Go back to the beginning of the file
	_, err := file.Seek(0, io.SeekStart)
	return evtCount, runNumber, err
}
