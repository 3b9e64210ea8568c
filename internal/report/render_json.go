package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "encoding/json"

func createJsonReport(r *Report) (out []byte, err error) {
	return json.MarshalIndent(r, "", " ")
}
