// Package mock provides hand-rolled test doubles for the monitor's runtime
// interfaces, each a data struct holding scripted behavior and call
// counters plus a thin type satisfying the interface by reading and
// updating that data.
package mock

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"context"

	"github.com/trustmon/lola/distribution"
)

// make sure we implement the distribution.Source interface
var _ distribution.Source = (*Source)(nil)

// SourceData for mocking a distribution.Source.
type SourceData struct {
	Snapshots []*distribution.Snapshot
	Err       error
	NextCount int
}

// Source mock, yielding Data.Snapshots in order and then signaling
// exhaustion, or failing with Data.Err once every scripted snapshot has
// been consumed.
type Source struct {
	Data SourceData
}

// Next returns the next scripted snapshot.
func (s *Source) Next(ctx context.Context) (snap *distribution.Snapshot, ok bool, err error) {
	s.Data.NextCount++

	if s.Data.NextCount > len(s.Data.Snapshots) {
		return nil, false, s.Data.Err
	}

	return s.Data.Snapshots[s.Data.NextCount-1], true, nil
}
