package game

// Formation names a board arrangement that earns a flat bonus on the next scoring action.
type Formation string

const (
	FormationNone          Formation = ""
	FormationBridge        Formation = "bridge"
	FormationHexagon       Formation = "hexagon"
	FormationDoubleHexagon Formation = "doubleHexagon"
	FormationTripleHexagon Formation = "tripleHexagon"
)

var formationLabels = map[Formation]string{
	FormationBridge:        "Bridge",
	FormationHexagon:       "Hexagon",
	FormationDoubleHexagon: "Double Hexagon",
	FormationTripleHexagon: "Triple Hexagon",
}

// Label is the human-readable name used in history descriptions.
func (f Formation) Label() string {
	return formationLabels[f]
}

// Valid reports whether f names a known formation.
func (f Formation) Valid() bool {
	_, ok := formationLabels[f]
	return ok
}
