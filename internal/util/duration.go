// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"fmt"
	"time"
)

// FormatDuration renders d rounded to whole seconds as "45s", "3m05s" or
// "2h03m05s". Negative durations get a leading "-".
func FormatDuration(d time.Duration) string {
	sign := ""
	if d < 0 {
		sign = "-"
		d = -d
	}
	secs := int64(d.Round(time.Second) / time.Second)
	h, m, s := secs/3600, (secs/60)%60, secs%60

	switch {
	case h > 0:
		return fmt.Sprintf("%s%dh%02dm%02ds", sign, h, m, s)
	case m > 0:
		return fmt.Sprintf("%s%dm%02ds", sign, m, s)
	default:
		return fmt.Sprintf("%s%ds", sign, s)
	}
}
