package settings

import (
	"path"

	"gopkg.in/natefinch/lumberjack.v2"
)

// channels that log lines to files, nil until StartFileLogs is called
var ChLogDuplicates chan []byte
var ChLogRelayErr chan []byte
var ChLogRestapiOk chan []byte
var ChLogRestapiErr chan []byte

// start a new rotating logger that routes through a channel for performance
func makeFileLogger(filename string) chan []byte {
	// lumberjack lets us rotate log files automatically
	log := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    2, // megabytes
		MaxBackups: 3,
		MaxAge:     28,    //days
		Compress:   false, // disabled by default
	}
	ch := make(chan []byte, 20)
	go func() {
		var err error
		for line := range ch {
			if len(line) == 0 {
				continue
			}
			// ensure a newline in logged message
			combined := append(line, []byte("\n")...)
			_, err = log.Write(combined)
			if err != nil {
				Logger.Warn().Int("bytes", len(combined)).Str("file", filename).Msg("could not write log line to file")
			}
		}
	}()
	return ch
}

// StartFileLogs creates the rotating file logs under the configured log path.
func StartFileLogs() {
	ChLogDuplicates = makeFileLogger(path.Join(Settings.LogPath, "duplicates.log"))
	ChLogRelayErr = makeFileLogger(path.Join(Settings.LogPath, "relay.err.log"))
	ChLogRestapiOk = makeFileLogger(path.Join(Settings.LogPath, "restapi.ok.log"))
	ChLogRestapiErr = makeFileLogger(path.Join(Settings.LogPath, "restapi.err.log"))
}

// WriteFileLog queues a line for a file log without blocking.
// Lines are discarded if the log was never started or is backed up.
func WriteFileLog(ch chan []byte, line []byte) bool {
	if ch == nil {
		return false
	}
	select {
	case ch <- line:
		return true
	default:
		return false
	}
}
