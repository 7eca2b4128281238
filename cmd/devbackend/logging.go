package main

import (
	"log/slog"
	"os"
)

var logLevel *slog.LevelVar = &slog.LevelVar{}
var jsonLogger *slog.Logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
