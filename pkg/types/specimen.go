package types

// Specimen is a sampled function together with its resolved one-hop call graph
type Specimen struct {
	FunctionName    string           `json:"functionName"`
	Source          string           `json:"source"`
	File            string           `json:"file"`
	CalledFunctions []CalledFunction `json:"calledFunctions"`
}

// CalledFunction is a direct callee of a specimen found in the same table
type CalledFunction struct {
	FunctionName string `json:"functionName"`
	Source       string `json:"source"`
	File         string `json:"file"`
}

// CalleeNames returns the names of the resolved callees in order
func (s *Specimen) CalleeNames() []string {
	names := make([]string, 0, len(s.CalledFunctions))
	for _, c := range s.CalledFunctions {
		names = append(names, c.FunctionName)
	}
	return names
}
