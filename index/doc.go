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


// Package index defines the vector index abstraction for tabindex.
//
// The index service is an external collaborator: this package specifies the
// boundary (Catalog for index lifecycle, Index for per-index operations) and
// the qdrant subpackage implements it over gRPC. The mock subpackage holds an
// in-memory implementation for tests.
//
// # Constructor Return Type Pattern
//
// Public constructors return the package interfaces rather than concrete
// types so consumers never couple to a particular index service:
//
//	catalog, err := qdrant.NewCatalog(cfg)  // returns index.Catalog
//
// # Thread Safety
//
// All implementations must be safe for concurrent use. The remote service's
// own consistency guarantees are treated as opaque.
package index
