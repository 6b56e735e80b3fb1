// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package enumerator walks the Black Duck license dashboard and collects the
// terms of every license it finds.
//
// Licenses and terms are fetched strictly one at a time. Payloads missing an
// expected field are logged as warnings and enumeration continues with the
// data gathered so far; any failed request stops enumeration immediately.
package enumerator
