// Package segment assembles the raw OCR tokens of one plate region into an
// ordered plate string. Plates carry two letter classes: a smaller province
// code and larger primary letters. The classes are told apart by glyph
// height relative to the mean height of the letter tokens in the region.
package segment

import (
	"sort"
	"strings"
)

// minFragmentConfidence drops OCR tokens the recognizer itself was unsure
// about before they can pollute the assembled string.
const minFragmentConfidence = 0.5

// smallLetterRatio: letters shorter than this fraction of the mean letter
// height are treated as the province class.
const smallLetterRatio = 0.95

type fragment struct {
	text   string
	left   float64
	height float64
}

// Assemble turns the fragments recognized within one plate region into a
// single uppercased string ordered smallLetters + largeLetters + digits,
// each group keeping its left-to-right order. It returns "" unless the
// result contains at least one letter and at least one digit: a read with
// only one of the two is an incomplete plate, and the voting window will
// pick up a complete one from a later frame instead.
func Assemble(fragments []Fragment) string {
	kept := make([]fragment, 0, len(fragments))
	for _, f := range fragments {
		text := strings.TrimSpace(f.Text)
		if f.Confidence < minFragmentConfidence || text == "" {
			continue
		}
		kept = append(kept, fragment{text: strings.ToUpper(text), left: f.Left, height: f.Height})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].left < kept[j].left })

	var small, large, digits []string

	// Reference height comes from the pure-letter tokens only; digits and
	// mixed tokens have different glyph metrics.
	var heightSum float64
	var letterCount int
	for _, f := range kept {
		if isAlpha(f.text) {
			heightSum += f.height
			letterCount++
		}
	}

	if letterCount > 0 {
		reference := heightSum / float64(letterCount)
		for _, f := range kept {
			switch {
			case isAlpha(f.text):
				if f.height < reference*smallLetterRatio {
					small = append(small, f.text)
				} else {
					large = append(large, f.text)
				}
			case isDigit(f.text):
				digits = append(digits, f.text)
			default:
				// Mixed token: split per character, letters land in the
				// large class.
				for _, c := range f.text {
					switch {
					case isAlphaRune(c):
						large = append(large, string(c))
					case isDigitRune(c):
						digits = append(digits, string(c))
					}
				}
			}
		}
	} else {
		// No letter token to build a reference from: collect digits only.
		// The acceptance gate below then rejects the region outright.
		for _, f := range kept {
			for _, c := range f.text {
				if isDigitRune(c) {
					digits = append(digits, string(c))
				}
			}
		}
	}

	letters := strings.Join(small, "") + strings.Join(large, "")
	number := strings.Join(digits, "")
	if letters == "" || number == "" {
		return ""
	}
	return letters + number
}

// Fragment is one OCR token with the geometry the segmenter needs.
type Fragment struct {
	Text       string
	Confidence float64
	Left       float64
	Height     float64
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isAlphaRune(c) {
			return false
		}
	}
	return true
}

func isDigit(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isDigitRune(c) {
			return false
		}
	}
	return true
}

func isAlphaRune(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func isDigitRune(c rune) bool {
	return c >= '0' && c <= '9'
}
