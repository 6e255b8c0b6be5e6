// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import "errors"

// errNoServersAreCreated means no diagnostics address is configured.
var errNoServersAreCreated = errors.New("no diagnostics servers are configured")
