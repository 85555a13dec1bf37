// Package syntax classifies source lines using chroma lexers.
package syntax

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// Lines is a line-indexed text source.
type Lines interface {
	LineCount() int
	LineText(line int) string
}

// Classifier answers token-class questions for one language.
type Classifier struct {
	lexer chroma.Lexer
}

// ForFilename returns a classifier for the language of filename. ok is
// false when no lexer matches.
func ForFilename(filename string) (c *Classifier, ok bool) {
	l := lexers.Match(filename)
	if l == nil {
		return nil, false
	}
	return &Classifier{lexer: l}, true
}

// ForLanguage returns a classifier for a language name or alias, falling
// back to Go.
func ForLanguage(name string) *Classifier {
	l := lexers.Get(name)
	if l == nil {
		l = lexers.Get("go")
	}
	return &Classifier{lexer: l}
}

// Supported reports whether a lexer exists for filename.
func Supported(filename string) bool {
	return lexers.Match(filename) != nil
}

// Language returns the lexer's language name.
func (c *Classifier) Language() string {
	return c.lexer.Config().Name
}

// IsCommentLine reports whether the token ending at the end of line is a
// comment. Empty lines never are.
func (c *Classifier) IsCommentLine(lines Lines, line int) bool {
	if line < 0 || line >= lines.LineCount() {
		return false
	}
	classes, err := c.Classify(lines)
	if err != nil {
		return false
	}
	return classes[line]
}

// Classify reports, for every line, whether the token ending at the end of
// the line is a comment.
func (c *Classifier) Classify(lines Lines) ([]bool, error) {
	n := lines.LineCount()
	texts := make([]string, n)
	for i := range texts {
		texts[i] = lines.LineText(i)
	}

	it, err := c.lexer.Tokenise(nil, strings.Join(texts, "\n")+"\n")
	if err != nil {
		return nil, fmt.Errorf("tokenise %s: %w", c.Language(), err)
	}

	classes := make([]bool, n)
	next, lineStart := 0, 0
	offset := 0
	for tok := it(); tok != chroma.EOF && next < n; tok = it() {
		end := offset + len(tok.Value)
		for next < n {
			if len(texts[next]) == 0 {
				lineStart++
				next++
				continue
			}
			last := lineStart + len(texts[next]) - 1
			if last >= end {
				break
			}
			if last >= offset {
				classes[next] = isComment(tok.Type)
			}
			lineStart += len(texts[next]) + 1
			next++
		}
		offset = end
	}
	return classes, nil
}

func isComment(tt chroma.TokenType) bool {
	return tt.InCategory(chroma.Comment) && !tt.InSubCategory(chroma.CommentPreproc)
}
