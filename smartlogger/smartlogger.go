/*
NAME
  smartlogger - smartlogger implements log file rotation and archiving of
  rotated log files.

DESCRIPTION
  Logs are written to <name>.log in the log directory. Rotated files are
  either moved to a backups directory or deleted when archived.

LICENSE
  smartlogger is Copyright (C) 2017-2026 the Australian Ocean Lab (AusOcean).

  It is free software: you can redistribute it and/or modify them
  under the terms of the GNU General Public License as published by the
  Free Software Foundation, either version 3 of the License, or (at your
  option) any later version.

  It is distributed in the hope that it will be useful, but WITHOUT
  ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
  FITNESS FOR A PARTICULAR PURPOSE. See the GNU General Public License
  for more details.

  You should have received a copy of the GNU General Public License
  in gpl.txt. If not, see http://www.gnu.org/licenses.
*/

package smartlogger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const backupDir = "backups"

type Smartlogger struct {
	path      string
	name      string
	LogRoller lumberjack.Logger

	mu       sync.Mutex
	keepLogs bool
}

// New generates and returns a new logger writing to name.log in path.
func New(path, name string) *Smartlogger {
	return &Smartlogger{
		path: path,
		name: name,
		LogRoller: lumberjack.Logger{
			Filename:   filepath.Join(path, name+".log"),
			MaxSize:    500, // megabytes
			MaxBackups: 10,
			MaxAge:     28, // days
		},
	}
}

// Rotate closes the current log file and dates it, followed by opening a new log file.
func (s *Smartlogger) Rotate() error {
	return s.LogRoller.Rotate()
}

// Close closes the current log file.
func (s *Smartlogger) Close() error {
	return s.LogRoller.Close()
}

// SetKeepLogs sets whether archived logs are kept in the backups directory
// rather than deleted.
func (s *Smartlogger) SetKeepLogs(kl bool) {
	s.mu.Lock()
	s.keepLogs = kl
	s.mu.Unlock()
}

// Archive moves all rotated log files into the backups directory, or deletes
// them if logs are not being kept, and returns the files it handled. A call
// to Archive should be preceded by a call to Rotate if the most recent log
// messages are to be archived. Files that could not be handled are reported
// in the log and left for the next call.
func (s *Smartlogger) Archive() ([]string, error) {
	s.mu.Lock()
	keep := s.keepLogs
	s.mu.Unlock()

	logFiles, err := filepath.Glob(filepath.Join(s.path, s.name+"-*"))
	if err != nil {
		return nil, fmt.Errorf("can't glob matching log files: %w", err)
	}

	if keep {
		err = os.MkdirAll(filepath.Join(s.path, backupDir), 0o755)
		if err != nil {
			return nil, fmt.Errorf("can't create backup directory: %w", err)
		}
	}

	var done []string
	for _, ff := range logFiles {
		lf := filepath.Base(ff)
		if keep {
			err = os.Rename(ff, filepath.Join(s.path, backupDir, lf))
		} else {
			err = os.Remove(ff)
		}
		if err != nil {
			s.LogRoller.Write([]byte("Can't archive log file " + lf + ". Err: " + err.Error() + "\n"))
			continue
		}
		done = append(done, lf)
	}
	return done, nil
}
