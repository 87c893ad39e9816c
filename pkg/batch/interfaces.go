/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package batch

import (
	"context"

	"github.com/carverauto/updatescout/pkg/models"
	"github.com/carverauto/updatescout/pkg/serviceadvisor"
)

// MachineResolver resolves one machine. A returned error means the shared
// transport is unusable and the batch must stop.
type MachineResolver interface {
	Resolve(ctx context.Context, id models.Identifier) (*serviceadvisor.MachineResult, error)
}

// Observer is notified once per completed machine. With more than one
// worker, notifications arrive in completion order, not input order.
type Observer interface {
	MachineCompleted(completed, total int, result *serviceadvisor.MachineResult)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(completed, total int, result *serviceadvisor.MachineResult)

// MachineCompleted implements Observer.
func (f ObserverFunc) MachineCompleted(completed, total int, result *serviceadvisor.MachineResult) {
	f(completed, total, result)
}
