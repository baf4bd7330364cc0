package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	dragon "github.com/dragon-exp/unpacker_go/pkg"
	"github.com/dragon-exp/unpacker_go/pkg/midas"
)

var configuration dragon.Configuration

var (
	logger         Logger
	VerbosityLevel int
)

func init() {
	opts := &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}
	handlerStdOut := NewHandler(os.Stdout, opts)
	handlerStdErr := slog.NewJSONHandler(os.Stderr, opts)
	logger = Logger{
		InfoLog:  slog.New(handlerStdOut),
		ErrorLog: slog.New(handlerStdErr),
	}
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	dragon.SetConfiguration(configuration)
	dragon.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	if err := run(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

func run() error {
	start := time.Now()

	file, err := os.Open(configuration.FileIn)
	if err != nil {
		return &dragon.ErrOpenFile{Filename: configuration.FileIn, Err: err}
	}
	defer file.Close()

	evtCount, runNumber, err := countEvents(file)
	if err != nil {
		return fmt.Errorf("error rewinding input file: %w", err)
	}
	if configuration.RunNumber >= 0 {
		runNumber = configuration.RunNumber
	}
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Number of events: %d, run number: %d", evtCount, runNumber)
		logger.Info(message, "main")
	}

	variables, err := loadVariables(runNumber)
	if err != nil {
		return err
	}

	unpacker, err := dragon.NewUnpacker(configuration)
	if err != nil {
		return fmt.Errorf("error creating unpacker: %w", err)
	}
	stats := make(map[dragon.Category]int)
	unpacker.OnEvent = func(category dragon.Category, u *dragon.Unpacker) {
		stats[category]++
		if VerbosityLevel > 2 {
			message := fmt.Sprintf("Produced %v event", category)
			logger.Info(message, "main")
		}
	}
	// The file may start mid run, so variables are set before the first
	// begin of run too
	if err := unpacker.HandleBOR(variables); err != nil {
		return err
	}

	fileReader := NewFileReader(bufio.NewReader(file))
	for {
		event, err := fileReader.getNextEvent()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				message := fmt.Errorf("error reading event: %w", err)
				logger.Error(message.Error())
			}
			break
		}
		processEvent(unpacker, event, variables)
	}
	drainQueue(unpacker)

	if VerbosityLevel > 0 {
		logger.Info(fmt.Sprintf("Timestamp diagnostics: %s", unpacker.Diagnostics.Report()), "main")
		logger.Info(fmt.Sprintf("Decode failures: %d", unpacker.DecodeFailures), "main")
	}
	for category := dragon.HeadEvent; category <= dragon.RunParametersEvent; category++ {
		logger.Info(fmt.Sprintf("%v events: %d", category, stats[category]), "main")
	}
	logger.Info(fmt.Sprintf("Total time: %d ms", time.Since(start).Milliseconds()), "main")
	return nil
}

func loadVariables(runNumber int) (dragon.VariableSource, error) {
	if !configuration.NoDB {
		dbConn, err := dragon.ConnectToDatabase(configuration)
		if err != nil {
			return nil, fmt.Errorf("Error connection to database: %w", err)
		}
		defer dbConn.Close()
		variables, err := dragon.LoadVariablesFromDB(dbConn, runNumber)
		if err != nil {
			return nil, fmt.Errorf("error loading variables from database: %w", err)
		}
		return variables, nil
	}
	if configuration.VariablesFile != "" {
		variables, err := dragon.LoadVariablesFile(configuration.VariablesFile)
		if err != nil {
			return nil, fmt.Errorf("error loading variables file: %w", err)
		}
		return variables, nil
	}
	return nil, nil
}

func processEvent(unpacker *dragon.Unpacker, event *midas.Event, variables dragon.VariableSource) {
	defer func() {
		if r := recover(); r != nil {
			errMessage := fmt.Errorf("unpacker recovered from panic on event serial %d: %v", event.Header.SerialNumber, r)
			logger.Error(errMessage.Error())
		}
	}()

	switch event.EventID() {
	case midas.BOR:
		// Events left from a previous run are drained by HandleBOR
		if err := unpacker.HandleBOR(variables); err != nil {
			logger.Error(err.Error())
		}
		unpacker.UnpackMidasEvent(event)
	case midas.EOR:
		unpacker.UnpackMidasEvent(event)
		drainQueue(unpacker)
	default:
		unpacker.UnpackMidasEvent(event)
	}
}

func drainQueue(unpacker *dragon.Unpacker) {
	if unpacker.IsSinglesMode() {
		return
	}
	for {
		left, _ := unpacker.FlushQueueIterative()
		if left == 0 {
			break
		}
	}
}
