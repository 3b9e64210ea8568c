package report

// Copyright (C) 2021-2025 Intel Corporation
// SPDX-License-Identifier: BSD-3-Clause

import "gopkg.in/yaml.v2"

func createYamlReport(r *Report) (out []byte, err error) {
	return yaml.Marshal(r)
}
