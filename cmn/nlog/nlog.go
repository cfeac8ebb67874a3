// Package nlog is kvbackup's logger: severity-leveled, stderr-backed, no
// third-party logging dependency, no file rotation or buffering since this
// component is a library, not a long-running daemon with its own log files.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"fmt"
	"os"
	"sync"
	"time"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevTag = [...]string{sevInfo: "I", sevWarn: "W", sevErr: "E"}

var mu sync.Mutex

func log(sev severity, format string, args ...any) {
	var line string
	if format == "" {
		line = fmt.Sprintln(args...)
	} else {
		line = fmt.Sprintf(format, args...) + "\n"
	}
	ts := time.Now().Format("0102 15:04:05.000000")
	mu.Lock()
	fmt.Fprintf(os.Stderr, "%s %s %s", sevTag[sev], ts, line)
	mu.Unlock()
}

func Infoln(args ...any)                  { log(sevInfo, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, format, args...) }
func Warningln(args ...any)               { log(sevWarn, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, format, args...) }
func Errorln(args ...any)                 { log(sevErr, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, format, args...) }
