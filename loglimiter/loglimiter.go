// edge-viewer - live edge detection for camera feeds
//  Copyright (C) 2026, The Cacophony Project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package loglimiter

import (
	"fmt"
	"log"
	"sync"
	"time"
)

// maxEntries bounds the number of distinct messages remembered.
const maxEntries = 64

// New returns a new LogLimiter with the configured minimum log interval.
func New(interval time.Duration) *LogLimiter {
	return &LogLimiter{
		interval: interval,
		nowFunc:  time.Now,
		entries:  make(map[string]*entry),
	}
}

// LogLimiter suppresses a log message if the same message was logged
// within the interval. Messages are tracked independently, so two
// alternating messages are both limited. When a suppressed message is
// next logged the number of suppressed repeats is appended.
type LogLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	nowFunc  func() time.Time
	entries  map[string]*entry
}

type entry struct {
	logged     time.Time
	suppressed int
}

func (limiter *LogLimiter) Printf(format string, v ...interface{}) {
	limiter.Print(fmt.Sprintf(format, v...))
}

func (limiter *LogLimiter) Print(s string) {
	limiter.mu.Lock()
	defer limiter.mu.Unlock()

	now := limiter.nowFunc()
	e, ok := limiter.entries[s]
	if ok && now.Sub(e.logged) < limiter.interval {
		e.suppressed++
		return
	}
	if !ok {
		limiter.evict(now)
		e = new(entry)
		limiter.entries[s] = e
	}

	if e.suppressed > 0 {
		log.Printf("%s (suppressed %d times)", s, e.suppressed)
	} else {
		log.Print(s)
	}
	e.logged = now
	e.suppressed = 0
}

// evict forgets expired messages once the table is full. If every message
// is still within its interval the oldest one is dropped.
func (limiter *LogLimiter) evict(now time.Time) {
	if len(limiter.entries) < maxEntries {
		return
	}
	var oldestKey string
	var oldest time.Time
	for k, e := range limiter.entries {
		if now.Sub(e.logged) >= limiter.interval {
			delete(limiter.entries, k)
			continue
		}
		if oldestKey == "" || e.logged.Before(oldest) {
			oldestKey, oldest = k, e.logged
		}
	}
	if len(limiter.entries) >= maxEntries {
		delete(limiter.entries, oldestKey)
	}
}
