package conll

// Reads and writes CoNLL-X format files
// For a description see http://ilk.uvt.nl/conll/#dataformat

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	fieldSeparator = "\t"
	numFields      = 10
	emptyField     = "_"
	//NoHead marks a token without a gold head annotation
	NoHead = -1
)

//Token is one row of a CoNLL sentence. Head is 1-based, 0 means the root,
//NoHead means the annotation is missing
type Token struct {
	Form   string
	PosTag string
	Head   int
	DepRel string
}

//Sentence keeps real tokens only. The root placeholder at position 0
//is added later by the batch builder
type Sentence []Token

//Sentences is a full data set
type Sentences []Sentence

//FromWords wraps plain tokenized sentences into unannotated Sentences
func FromWords(words [][]string) Sentences {
	result := make(Sentences, len(words))
	for i, ws := range words {
		s := make(Sentence, len(ws))
		for j, w := range ws {
			s[j] = Token{Form: w, Head: NoHead}
		}
		result[i] = s
	}
	return result
}

//Read parses CoNLL-X data from the reader
func Read(reader io.Reader) (Sentences, error) {
	result := make(Sentences, 0)
	current := make(Sentence, 0)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	ln := 0
	for scanner.Scan() {
		ln++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.HasPrefix(line, "#") {
			continue
		}
		if strings.TrimSpace(line) == "" {
			if len(current) > 0 {
				result = append(result, current)
				current = make(Sentence, 0)
			}
			continue
		}
		fields := strings.Split(line, fieldSeparator)
		if len(fields) < 8 {
			return nil, errors.Errorf("Wrong field count %d at line %d", len(fields), ln)
		}
		// skip multiword ranges and empty nodes of CoNLL-U files
		if strings.Contains(fields[0], "-") || strings.Contains(fields[0], ".") {
			continue
		}
		tok, err := parseToken(fields)
		if err != nil {
			return nil, errors.Wrapf(err, "Cannot parse line %d", ln)
		}
		current = append(current, tok)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "Cannot read input")
	}
	if len(current) > 0 {
		result = append(result, current)
	}
	return result, nil
}

//ReadFile parses a CoNLL-X file
func ReadFile(name string) (Sentences, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "Cannot open file")
	}
	defer f.Close()
	return Read(f)
}

func parseToken(fields []string) (Token, error) {
	res := Token{}
	res.Form = parseString(fields[1])
	res.PosTag = parseString(fields[3])
	if res.PosTag == "" {
		res.PosTag = parseString(fields[4])
	}
	res.Head = NoHead
	if fields[6] != emptyField {
		h, err := strconv.Atoi(fields[6])
		if err != nil {
			return res, errors.Wrapf(err, "Wrong head '%s'", fields[6])
		}
		res.Head = h
	}
	res.DepRel = parseString(fields[7])
	return res, nil
}

func parseString(value string) string {
	if value == emptyField {
		return ""
	}
	return value
}

func formatString(value string) string {
	if value == "" {
		return emptyField
	}
	return value
}

//Write outputs sentences in CoNLL-X format
func Write(writer io.Writer, sentences Sentences) error {
	w := bufio.NewWriter(writer)
	for _, s := range sentences {
		for i, tok := range s {
			head := emptyField
			if tok.Head != NoHead {
				head = strconv.Itoa(tok.Head)
			}
			fields := []string{
				strconv.Itoa(i + 1),
				formatString(tok.Form),
				emptyField,
				formatString(tok.PosTag),
				formatString(tok.PosTag),
				emptyField,
				head,
				formatString(tok.DepRel),
				emptyField,
				emptyField}
			if _, err := fmt.Fprintln(w, strings.Join(fields, fieldSeparator)); err != nil {
				return errors.Wrap(err, "Cannot write token")
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return errors.Wrap(err, "Cannot write sentence end")
		}
	}
	return w.Flush()
}

//WriteFile outputs sentences to a CoNLL-X file
func WriteFile(name string, sentences Sentences) error {
	f, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "Cannot create file")
	}
	defer f.Close()
	return Write(f, sentences)
}
