// Copyright 2025 the original author or authors.
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

package heightmap

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zip"
	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const elevationHeader = "Elevation Adjustment"

func readElevation(f *zip.File) (float64, float64, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, 0, eris.Wrapf(err, "opening %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	lo, hi, err := ParseElevation(rc)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "reading %s", f.Name)
	}

	return lo, hi, nil
}

// ParseElevation scans a raster README for its elevation adjustment section
// and returns the declared minimum and maximum elevation. The range is read
// from the first line after the section header mentioning "through", e.g.
// "87 through 317 meters.", which must hold exactly two numbers.
func ParseElevation(r io.Reader) (float64, float64, error) {
	// README files are written with and without a byte order mark
	dec := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	scanner := bufio.NewScanner(dec)
	inSection := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if !inSection {
			inSection = strings.HasPrefix(line, elevationHeader)
			continue
		}

		if strings.Contains(line, "through") {
			return parseRange(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return 0, 0, eris.Wrap(err, "scanning README")
	}

	if !inSection {
		return 0, 0, eris.Wrapf(ErrElevationMissing, "no %q section", elevationHeader)
	}

	return 0, 0, eris.Wrap(ErrElevationMissing, "no elevation range line")
}

func parseRange(line string) (float64, float64, error) {
	var nums []float64

	for _, word := range strings.Fields(line) {
		if v, err := strconv.ParseFloat(word, 64); err == nil {
			nums = append(nums, v)
		}
	}

	if len(nums) != 2 {
		return 0, 0, eris.Wrapf(ErrElevationMissing, "could not extract elevations from %q", line)
	}

	return nums[0], nums[1], nil
}
