/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package common

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.SugaredLogger

func init() {
	InitLog(os.Getenv("TXCONSOLE_LOG_LEVEL"))
}

// InitLog is an initialization for a logger
// level can be: debug info warn error
func InitLog(level string) {
	config := zap.NewProductionConfig()
	err := config.Level.UnmarshalText([]byte(OrString(strings.ToLower(level), "info")))
	if err != nil {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.OutputPaths = []string{"stderr"}
	p, err := config.Build(zap.AddCallerSkip(1))
	E2P(err)
	logger = p.Sugar()
}

// Debugf log to level debug
func Debugf(fmt string, args ...interface{}) {
	logger.Debugf(fmt, args...)
}

// Infof log to level info
func Infof(fmt string, args ...interface{}) {
	logger.Infof(fmt, args...)
}

// Warnf log to level warn
func Warnf(fmt string, args ...interface{}) {
	logger.Warnf(fmt, args...)
}

// Errorf log to level error
func Errorf(fmt string, args ...interface{}) {
	logger.Errorf(fmt, args...)
}

