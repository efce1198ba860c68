package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

const maxFilenameLen = 100

var (
	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	repeatedHyphens     = regexp.MustCompile(`-+`)
)

// SanitizeFilename turns an uploaded file name into a safe flat name.
// "Ảnh bìa (final).PNG" -> "Anh-bia-final.PNG"
func SanitizeFilename(name string) string {
	// Browser có thể gửi full path (IE, Windows)
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))

	name = RemoveDiacritics(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, name)
	name = unsafeFilenameChars.ReplaceAllString(name, "-")
	name = repeatedHyphens.ReplaceAllString(name, "-")
	name = strings.ReplaceAll(name, "-.", ".")
	name = strings.Trim(name, "-.")

	if len(name) > maxFilenameLen {
		ext := filepath.Ext(name)
		if len(ext) > 10 {
			ext = ""
		}
		name = name[:maxFilenameLen-len(ext)] + ext
	}

	if name == "" {
		return "file"
	}
	return name
}

var diacritics = map[rune]rune{}

func init() {
	groups := map[rune]string{
		'a': "áàảãạăắằẳẵặâấầẩẫậ",
		'e': "éèẻẽẹêếềểễệ",
		'i': "íìỉĩị",
		'o': "óòỏõọôốồổỗộơớờởỡợ",
		'u': "úùủũụưứừửữự",
		'y': "ýỳỷỹỵ",
		'd': "đ",
		'A': "ÁÀẢÃẠĂẮẰẲẴẶÂẤẦẨẪẬ",
		'E': "ÉÈẺẼẸÊẾỀỂỄỆ",
		'I': "ÍÌỈĨỊ",
		'O': "ÓÒỎÕỌÔỐỒỔỖỘƠỚỜỞỠỢ",
		'U': "ÚÙỦŨỤƯỨỪỬỮỰ",
		'Y': "ÝỲỶỸỴ",
		'D': "Đ",
	}
	for base, variants := range groups {
		for _, r := range variants {
			diacritics[r] = base
		}
	}
}

// RemoveDiacritics: "Nguyễn Nhật Ánh" -> "Nguyen Nhat Anh"
func RemoveDiacritics(input string) string {
	return strings.Map(func(r rune) rune {
		if base, ok := diacritics[r]; ok {
			return base
		}
		return r
	}, input)
}
