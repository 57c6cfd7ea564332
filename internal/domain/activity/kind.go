package activity

import "strings"

type Kind string

const (
	KindCook    Kind = "cook"
	KindCraft   Kind = "craft"
	KindSmelt   Kind = "smelt"
	KindGather  Kind = "gather"
	KindTrain   Kind = "train"
	KindAgility Kind = "agility"
	KindThieve  Kind = "thieve"
	KindDice    Kind = "dice"
)

func QueueableKinds() []Kind {
	return []Kind{KindCook, KindCraft, KindSmelt, KindGather, KindTrain, KindAgility}
}

func InstantKinds() []Kind {
	return []Kind{KindTrain, KindThieve, KindAgility, KindDice}
}

func IsQueueable(k Kind) bool {
	for _, kind := range QueueableKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func IsInstant(k Kind) bool {
	for _, kind := range InstantKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

func NormalizeKind(raw string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(raw)))
}

// TargetParam names the params key that selects the catalog entry for kind.
func TargetParam(k Kind) string {
	switch k {
	case KindCook, KindCraft, KindSmelt:
		return "recipe"
	case KindGather:
		return "node"
	case KindTrain:
		return "exercise"
	case KindAgility:
		return "obstacle"
	case KindThieve:
		return "target"
	case KindDice:
		return "game"
	default:
		return ""
	}
}
