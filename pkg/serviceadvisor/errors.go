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

package serviceadvisor

import "errors"

var (
	ErrMalformedUpdateID      = errors.New("softwareUpdateId has no controller segment")
	ErrUnexpectedSectionCount = errors.New("expected exactly one section detail")
	ErrMalformedRecord        = errors.New("update record is not a valid object")
	ErrMissingUpdateList      = errors.New("response has no " + UpdateListKey + " key")
	ErrUpdateListNotArray     = errors.New(UpdateListKey + " is not a list")
	ErrMalformedResponse      = errors.New("response is not a JSON object")
	ErrMissingSessionID       = errors.New("session response has no sessionId")
)
