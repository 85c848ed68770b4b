package gocrm

// ValidStates lists the 27 Brazilian federative units (UF) with a regional medical council.
var ValidStates = []string{
	"AC", "AL", "AP", "AM", "BA", "CE", "DF", "ES", "GO",
	"MA", "MT", "MS", "MG", "PA", "PB", "PR", "PE", "PI",
	"RJ", "RN", "RS", "RO", "RR", "SC", "SP", "SE", "TO",
}

var validStateSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(ValidStates))
	for _, uf := range ValidStates {
		set[uf] = struct{}{}
	}
	return set
}()

// IsValidState reports whether uf is one of ValidStates. The match is exact:
// callers that accept lower-case input should upper-case it first.
func IsValidState(uf string) bool {
	_, ok := validStateSet[uf]
	return ok
}
