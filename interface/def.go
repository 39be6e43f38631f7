package iface

// ExportRequest is what the orchestrator hands to an Exporter.
type ExportRequest struct {
	Weights string
	Format  string
	ImgSize int
	Int8    bool
}

// Artifacts is the exporter's answer: either one path or an ordered list of
// candidate paths. The zero value means nothing was produced.
type Artifacts struct {
	single string
	list   []string
	isList bool
}

func SingleArtifact(path string) Artifacts {
	return Artifacts{single: path}
}

func ArtifactList(paths ...string) Artifacts {
	list := make([]string, len(paths))
	copy(list, paths)
	return Artifacts{list: list, isList: true}
}

func (a Artifacts) IsList() bool {
	return a.isList
}

// Candidates returns the artifacts in the exporter's order. An empty single
// path counts as no artifact.
func (a Artifacts) Candidates() []string {
	if a.isList {
		out := make([]string, len(a.list))
		copy(out, a.list)
		return out
	}
	if a.single == "" {
		return nil
	}
	return []string{a.single}
}

// First applies the selection policy: the first candidate wins.
func (a Artifacts) First() (string, bool) {
	c := a.Candidates()
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}
