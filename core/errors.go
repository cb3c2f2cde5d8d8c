// Copyright 2025 Crosstown Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import "errors"

// Domain errors shared across packages.
var (
	// ErrNoInput indicates an ingestion run found no source files.
	ErrNoInput = errors.New("no source files found")

	// ErrDimensionMismatch indicates the embedding dimension does not match
	// the index dimension. This is a configuration fault and fatal for a run.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrMissingConfig indicates a required credential or setting is absent.
	ErrMissingConfig = errors.New("missing required configuration")
)
