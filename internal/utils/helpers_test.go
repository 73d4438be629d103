package utils

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := `# 种子列表
https://example.com/docs/

  https://example.com/blog  
ftp://example.com/invalid
not a url
http://127.0.0.1:8080/
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("写入测试文件失败: %v", err)
	}

	got, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("ReadURLsFromFile() 返回错误: %v", err)
	}
	want := []string{"https://example.com/docs/", "https://example.com/blog", "http://127.0.0.1:8080/"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ReadURLsFromFile() = %v, 期望 %v", got, want)
	}
}

func TestReadURLsFromFile_Errors(t *testing.T) {
	t.Run("文件不存在", func(t *testing.T) {
		if _, err := ReadURLsFromFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
			t.Error("应该返回错误")
		}
	})

	t.Run("没有有效URL", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.txt")
		os.WriteFile(path, []byte("# 只有注释\n\n"), 0644)
		if _, err := ReadURLsFromFile(path); err == nil {
			t.Error("应该返回错误")
		}
	})
}

func TestDedupeStrings(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"空列表", nil, []string{}},
		{"无重复", []string{"a", "b"}, []string{"a", "b"}},
		{"保留首次出现顺序", []string{"b", "a", "b", "c", "a"}, []string{"b", "a", "c"}},
		{"字面值去重", []string{"https://x.test", "https://x.test/"}, []string{"https://x.test", "https://x.test/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DedupeStrings(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DedupeStrings() = %v, 期望 %v", got, tt.want)
			}
		})
	}
}
