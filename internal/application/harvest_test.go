package application_test

import (
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulehound/rulehound/internal/application"
	"github.com/rulehound/rulehound/internal/domain/model"
)

// fakeParser returns one rule named after the file content, or fails when
// the content contains "syntax error". Safe for concurrent use, since the
// collect service parses from multiple workers.
type fakeParser struct {
	mu     sync.Mutex
	parsed []string
	failed int
}

func (p *fakeParser) Parse(text string) ([]model.Rule, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if strings.Contains(text, "syntax error") {
		p.failed++
		return nil, errors.New("line 1: unexpected token")
	}
	p.parsed = append(p.parsed, text)
	return []model.Rule{{Identifier: strings.TrimSpace(text)}}, nil
}

func TestHarvestRuleFiles_RecognizedExtensionsOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.yar"), "rule_a")
	writeFile(t, filepath.Join(root, "sub", "b.yara"), "rule_b")
	writeFile(t, filepath.Join(root, "notes.txt"), "rule_c")
	writeFile(t, filepath.Join(root, "c.yml"), "rule_d")

	parser := &fakeParser{}
	files, err := application.HarvestRuleFiles(root, "", parser, testLogger())

	require.NoError(t, err)
	require.Len(t, files, 2)

	paths := []string{files[0].RelativePath, files[1].RelativePath}
	assert.ElementsMatch(t, []string{"a.yar", "sub/b.yara"}, paths)
}

func TestHarvestRuleFiles_MalformedFileSkippedOthersKept(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "good1.yar"), "rule_1")
	writeFile(t, filepath.Join(root, "good2.yar"), "rule_2")
	writeFile(t, filepath.Join(root, "good3.yara"), "rule_3")
	writeFile(t, filepath.Join(root, "broken.yar"), "syntax error here")

	parser := &fakeParser{}
	files, err := application.HarvestRuleFiles(root, "", parser, testLogger())

	require.NoError(t, err)
	assert.Len(t, files, 3)
	assert.Equal(t, 1, parser.failed)
	for _, rf := range files {
		assert.NotEqual(t, "broken.yar", rf.RelativePath)
	}
}

func TestHarvestRuleFiles_SubPathWalkedButPathsStayRootRelative(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.yar"), "rule_top")
	writeFile(t, filepath.Join(root, "yara", "deep", "a.yar"), "rule_deep")

	parser := &fakeParser{}
	files, err := application.HarvestRuleFiles(root, "yara", parser, testLogger())

	require.NoError(t, err)
	require.Len(t, files, 1, "files outside the configured subdirectory are not harvested")
	assert.Equal(t, "yara/deep/a.yar", files[0].RelativePath)
}

func TestHarvestRuleFiles_MissingSubPathYieldsNothing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "top.yar"), "rule_top")

	parser := &fakeParser{}
	files, err := application.HarvestRuleFiles(root, "no-such-dir", parser, testLogger())

	require.NoError(t, err)
	assert.Empty(t, files)
}
