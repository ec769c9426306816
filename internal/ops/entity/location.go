package entity

// LocationKind identifies which bucket of the ledger a balance lives in.
const (
	LocationStorage = "STORAGE" // factory storage
	LocationMachine = "MACHINE" // installed on a machine
	LocationDamaged = "DAMAGED" // damaged/defective bucket of a factory
)

// Location is an opaque ledger key: a kind plus the owning factory or
// machine id. It has no lifecycle of its own.
type Location struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

func StorageLoc(factoryID string) Location {
	return Location{Kind: LocationStorage, ID: factoryID}
}

func MachineLoc(machineID string) Location {
	return Location{Kind: LocationMachine, ID: machineID}
}

func DamagedLoc(factoryID string) Location {
	return Location{Kind: LocationDamaged, ID: factoryID}
}
