package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/N0SH3LL/TDL-Kaizen/internal/models"
)

var fixedNow = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func sample() *models.Progress {
	p := models.NewProgress("/project")
	p.SCC["/sccs/Network_02.xlsx"] = &models.Checklist{
		SCC:              "Network_02",
		Version:          "02",
		SCMName:          "J. Doe",
		GuidancePresent:  true,
		TLAColumnPresent: true,
	}
	p.SCC["/sccs/Windows.xlsx"] = &models.Checklist{SCC: "Windows"}

	p.Attestations["123456"] = []*models.AttestationRecord{{
		Evidence:       models.Evidence{SCC: "Network_02", Gathered: true},
		Number:         "123456",
		ApprovalStatus: "Approved",
		ValidTo:        "2025-01-31",
	}}
	p.BPERs["BPER0001234"] = []*models.ExceptionRecord{
		{Evidence: models.Evidence{SCC: "Network_02"}, Name: "BPER0001234", ApprovalStatus: "Pending", TLA: true},
		{Evidence: models.Evidence{SCC: "Windows", Gathered: true}, Name: "BPER0001234"},
	}
	p.BPERs["BPER0009999"] = []*models.ExceptionRecord{
		{Evidence: models.Evidence{SCC: "Network_02", FalsePositive: true}, Name: "BPER0009999"},
	}
	p.Documents["Firewall | Rules"] = []*models.SupportingDocument{{
		Evidence:   models.Evidence{SCC: "Network_02"},
		Name:       "Firewall | Rules",
		Version:    "03",
		LastUpdate: "2024-02-10",
	}}
	p.Checks["V-1001"] = &models.Check{SCC: "Network_02", EvidenceMethod: "Manual"}
	p.Checks["V-1002"] = &models.Check{SCC: "Network_02", EvidenceMethod: "Automated"}
	p.Checks["V-1003"] = &models.Check{SCC: "Network_02", EvidenceMethod: "Manual"}
	p.Checks["V-2001"] = &models.Check{SCC: "Windows"}
	return p
}

func TestRender(t *testing.T) {
	md := string(Render(sample(), "Network_02"))

	assert.Contains(t, md, "# Network_02\n")
	assert.Contains(t, md, "**SCM Name:** J. Doe")
	assert.Contains(t, md, "- [x] SCC Guidance source\n")
	assert.Contains(t, md, "- [ ] SCC Policy and Procedure\n")
	assert.Contains(t, md, "- [x] TLA Column\n")

	assert.Regexp(t, `\| \[x\] +\| 123456 +\| Approved +\| 2025-01-31 +\|`, md)
	assert.Regexp(t, `\| \[ \] +\| BPER0001234 \| Pending +\| +\| \[x\] \|`, md)
	assert.NotContains(t, md, "BPER0009999", "false positives are omitted")
	assert.Contains(t, md, `Firewall \| Rules`)

	assert.Regexp(t, `\| Automated +\| Manual +\|`, md)
	assert.Regexp(t, `\| V-1002 +\| V-1001 +\|`, md)
	assert.Regexp(t, `\| +\| V-1003 +\|`, md)
	assert.NotContains(t, md, "V-2001")

	empty := string(Render(sample(), "Windows"))
	assert.Contains(t, empty, "No Attestations found.")
	assert.Contains(t, empty, "| V-2001 |")
	assert.Contains(t, empty, "| N/A    |")
}

func TestGenerate(t *testing.T) {
	root := t.TempDir()
	p := sample()
	g := NewGenerator(root)
	g.HTML = true
	g.Now = func() time.Time { return fixedNow }

	paths, err := g.Generate(p)
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(root, "Network", "Network_02_info.md"),
		filepath.Join(root, "Windows", "Windows_info.md"),
	}, paths)

	assert.Equal(t, paths[0], p.SCC["/sccs/Network_02.xlsx"].InfoDocPath)
	assert.Equal(t, "2024-06-01T09:30:00Z", p.Settings[models.SettingChecklistsGenerated])

	page, err := os.ReadFile(filepath.Join(root, "Network", "Network_02_info.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "<title>Network_02</title>")
	assert.Contains(t, string(page), "<table>")
	assert.Contains(t, string(page), "<td>BPER0001234</td>")

	_, err = NewGenerator("").Generate(p)
	assert.Error(t, err)
}

func TestParseTables(t *testing.T) {
	tables := ParseTables(Render(sample(), "Network_02"))

	assert.Equal(t, map[string]bool{"123456": true}, tables["Attestations"])
	assert.Equal(t, map[string]bool{"BPER0001234": false}, tables["BPERs"])
	assert.Equal(t, map[string]bool{"Firewall | Rules": false}, tables["Documents"])
	assert.NotContains(t, tables, "Checks")
}

func TestDocumentNamesSurviveRenderAndParse(t *testing.T) {
	names := []string{
		"Backup *Draft* Plan",
		"Policy <internal>",
		"Plan `v2`",
		"Plan_v2_final",
		`C:\Docs\Plan`,
		`Trailing \`,
		`Already \* escaped`,
		"Old ~~Retired~~ Procedure",
		"See [annex](https://example.com/annex)",
		"![diagram](net.png) Topology",
		"R&D &amp; Ops | Shared",
		"<https://example.com/policy>",
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p := models.NewProgress("/project")
			p.SCC["/sccs/Network_02.xlsx"] = &models.Checklist{SCC: "Network_02"}
			p.Documents[name] = []*models.SupportingDocument{{
				Evidence: models.Evidence{SCC: "Network_02", Gathered: true},
				Name:     name,
			}}

			tables := ParseTables(Render(p, "Network_02"))
			assert.Equal(t, map[string]bool{name: true}, tables["Documents"])
		})
	}
}

func TestSyncAppliesOperatorEdits(t *testing.T) {
	root := t.TempDir()
	p := sample()
	paths, err := NewGenerator(root).Generate(p)
	require.NoError(t, err)

	edited := `# Network_02

## Attestations

| Gathered | Attestation Number |
| -------- | ------------------ |
| [ ]      | 123456             |

## BPERs

| Gathered | BPER Name   |
| -------- | ----------- |
| [X]      | BPER0001234 |
| [x]      | BPER0009999 |

## Documents

| Gathered | Document Name      |
| -------- | ------------------ |
| [x]      | Firewall \| Rules  |
`
	require.NoError(t, os.WriteFile(paths[0], []byte(edited), 0644))
	require.NoError(t, os.Remove(paths[1]))

	results, err := Sync(p, root)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "Network_02", results[0].Checklist)
	assert.Equal(t, 3, results[0].Changed)
	assert.Contains(t, results[0].Changes, Change{Category: models.Exceptions, ID: "BPER0001234", Gathered: true})
	assert.Contains(t, results[0].Changes, Change{Category: models.Attestations, ID: "123456", Gathered: false})
	assert.True(t, results[1].Missing)

	assert.False(t, p.Attestations["123456"][0].Gathered)
	assert.True(t, p.BPERs["BPER0001234"][0].Gathered)
	assert.True(t, p.BPERs["BPER0001234"][1].Gathered, "other checklist's record is untouched")
	assert.False(t, p.BPERs["BPER0009999"][0].Gathered, "false positives are never synced")
	assert.True(t, p.Documents["Firewall | Rules"][0].Gathered)

	// a second sync of the same document is a no-op
	results, err = Sync(p, root)
	require.NoError(t, err)
	assert.Equal(t, 0, results[0].Changed)
}
