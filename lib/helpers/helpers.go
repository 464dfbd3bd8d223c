package helpers

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func EscapeMarkdownV2(text string) string {
	charactersToEscape := []string{".", "-", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "=", "|", "{", "}", "!"}

	for _, char := range charactersToEscape {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// FormatNumber renders a price or USD amount at a precision that suits its
// magnitude, abbreviating thousands and up. Micro-cap token prices keep up to
// ten decimals so they do not collapse to zero.
func FormatNumber(num float64) string {
	switch {
	case num >= 1_000_000_000:
		return fmt.Sprintf("%.2fB", num/1_000_000_000)
	case num >= 1_000_000:
		return fmt.Sprintf("%.2fM", num/1_000_000)
	case num >= 1_000:
		return fmt.Sprintf("%.2fK", num/1_000)
	case num >= 1:
		return fmt.Sprintf("%.4f", num)
	case num >= 0.0001:
		return fmt.Sprintf("%.6f", num)
	default:
		return fmt.Sprintf("%.10f", num)
	}
}

func FormatPriceUS(price float64, escapeMarkdown bool) string {
	decimals := 6

	if price >= 1000 {
		decimals = 0
	} else if price > 1.2 {
		decimals = 2
	} else if price < 0.00001 {
		decimals = 8
	}

	p := message.NewPrinter(language.English)
	formatted := p.Sprintf("%.*f", decimals, price)

	if escapeMarkdown {
		return EscapeMarkdownV2(formatted)
	}
	return formatted
}

func FormatPercentage(percent float64) string {
	return EscapeMarkdownV2(fmt.Sprintf("%+.2f%%", percent))
}

func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// IsContractAddress reports whether a string looks like an EVM (0x + 40 hex)
// or Solana (32-44 base58 chars) contract address.
func IsContractAddress(address string) bool {
	if strings.HasPrefix(address, "0x") {
		if len(address) != 42 {
			return false
		}
		for _, c := range address[2:] {
			if !isHexDigit(c) {
				return false
			}
		}
		return true
	}

	if len(address) < 32 || len(address) > 44 {
		return false
	}
	const base58Chars = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	for _, c := range address {
		if !strings.ContainsRune(base58Chars, c) {
			return false
		}
	}
	return true
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
