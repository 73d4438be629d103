package main

import "testing"

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		name    string
		depth   int
		workers int
		format  string
		level   string
		wantErr bool
	}{
		{"全部未指定", -1, 0, "", "", false},
		{"有效参数", 0, 8, "html", "debug", false},
		{"格式大写", 2, 1, "TEXT", "WARN", false},
		{"深度为负数", -2, 0, "", "", true},
		{"并发数过大", -1, 101, "", "", true},
		{"并发数为负数", -1, -1, "", "", true},
		{"无效格式", -1, 0, "markdown", "", true},
		{"无效日志级别", -1, 0, "", "trace", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlags(tt.depth, tt.workers, tt.format, tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
