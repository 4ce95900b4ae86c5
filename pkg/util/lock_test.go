// Copyright 2023-2024 daviszhen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReentryLock(t *testing.T) {
	lock := NewReentryLock()
	lock.Lock()
	lock.Lock()
	assert.True(t, lock.HeldByMe())
	lock.Unlock()
	assert.True(t, lock.HeldByMe())
	lock.Unlock()
	assert.False(t, lock.HeldByMe())
	assert.Panics(t, func() {
		lock.Unlock()
	})

	counter := 0
	wg := sync.WaitGroup{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				lock.Lock()
				lock.Lock()
				counter++
				lock.Unlock()
				lock.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, counter)
}
