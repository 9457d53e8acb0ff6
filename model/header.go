// Copyright 2017-25 the original author or authors.
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

package model

import (
	"time"
)

// Header is the metadata block at the start of an exported mesh file.
type Header struct {
	BoundingBox    *BoundingBox `json:"bounding_box,omitempty"`
	WritingProgram string       `json:"writing_program,omitempty"`
	Source         string       `json:"source,omitempty"`
	Generated      time.Time    `json:"generated,omitempty"`
	RunID          string       `json:"run_id,omitempty"`
}
