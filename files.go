/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"strconv"
)

const sizePrefixes = " kMGTPE"

// humanReadableSize formats a response size in SI units for request logs.
func humanReadableSize(n int) string {
	const unit = 1000

	if n < unit {
		return strconv.Itoa(n) + " B"
	}

	size, prefix := float64(n), 0
	for size >= unit && prefix < len(sizePrefixes)-1 {
		size /= unit
		prefix++
	}

	return fmt.Sprintf("%.1f %cB", size, sizePrefixes[prefix])
}
