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

package scout

import "errors"

var (
	errInvalidWorkers          = errors.New("workers must be at least 1")
	errInvalidBreakerThreshold = errors.New("breaker_threshold must not be negative")
	errInvalidProgressEvery    = errors.New("progress_every must not be negative")
	errMissingIdentifiersFile  = errors.New("registry.identifiers_file is required")
	errMissingOrganizations    = errors.New("registry.organizations_file is required to select notification organizations")
	errMissingServiceAdvisor   = errors.New("service_advisor.base_url is required")
	errMissingNotifications    = errors.New("notifications.base_url is required")
	errMissingSessionCookie    = errors.New("service advisor SESSION cookie is not configured")
	errMissingClientCookie     = errors.New("notification client cookie is not configured")
	errMissingSubject          = errors.New("nats.subject is required when nats.url is set")
)
