package main

import (
	"encoding/json"
	"fmt"
	"os"

	dragon "github.com/dragon-exp/unpacker_go/pkg"
)

func LoadConfiguration(filename string) (dragon.Configuration, error) {
	config := dragon.DefaultConfiguration()

	// Set default values
	config.Host = "localhost"
	config.User = "dragon"
	config.Passwd = "dragon"
	config.DBName = "dragon"
	config.DBFile = "variables.db"

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, &dragon.ErrOpenFile{Filename: filename, Err: err}
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("error parsing configuration: %w", err)
	}

	switch config.DBDriver {
	case "mysql", "sqlite":
	default:
		return config, fmt.Errorf("unsupported db_driver %q", config.DBDriver)
	}
	if config.QueueMaxSize < 0 {
		return config, fmt.Errorf("queue_max_size must not be negative: %d", config.QueueMaxSize)
	}
	return config, nil
}

func printConfiguration(config dragon.Configuration, logger Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Skip: %d", config.Skip), "config")
	logger.Info(fmt.Sprintf("Max events: %d", config.MaxEvents), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("Singles mode: %t", config.SinglesMode), "config")
	logger.Info(fmt.Sprintf("Coincidence window: %d us", config.CoincWindow), "config")
	logger.Info(fmt.Sprintf("Queue time: %d us", config.QueueTime), "config")
	logger.Info(fmt.Sprintf("Queue max size: %d", config.QueueMaxSize), "config")
	logger.Info(fmt.Sprintf("Auto flush: %t", config.AutoFlush), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("DB driver: %s", config.DBDriver), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("DB file: %s", config.DBFile), "config")
	logger.Info(fmt.Sprintf("Variables file: %s", config.VariablesFile), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
}
