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

package vendorapi

import "context"

type endpointKey struct{}

const defaultEndpoint = "other"

// WithEndpoint labels the requests issued with ctx for metrics and tracing.
// Paths carry machine identifiers, so they are not used as labels.
func WithEndpoint(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, endpointKey{}, name)
}

// EndpointFrom returns the label set by WithEndpoint.
func EndpointFrom(ctx context.Context) string {
	if name, ok := ctx.Value(endpointKey{}).(string); ok && name != "" {
		return name
	}

	return defaultEndpoint
}
