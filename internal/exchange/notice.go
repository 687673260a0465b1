// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package exchange

import (
	"errors"

	"github.com/jeranaias/studytutor/internal/tutor"
)

const noticeSuggestions = "\n\nYou can try:\n" +
	"- Checking your internet connection\n" +
	"- Refreshing the session\n" +
	"- Trying again in a few moments"

// FormatErrorNotice renders the markdown shown in place of an answer that
// could not be delivered.
func FormatErrorNotice(err error) string {
	return "⚠️ **Error**: " + failureReason(err) + noticeSuggestions
}

func failureReason(err error) string {
	var sendErr *tutor.SendError
	if !errors.As(err, &sendErr) {
		sendErr = &tutor.SendError{Class: tutor.ClassifyError(err), Err: err}
	}
	return sendErr.Reason()
}
