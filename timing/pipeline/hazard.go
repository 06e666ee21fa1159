package pipeline

// StallKind classifies the hazard stall decided for a cycle.
type StallKind int

const (
	// StallNone means the decode stage may advance.
	StallNone StallKind = iota

	// StallLoadUse is a load in EX feeding a non-branch consumer in ID.
	// One stall cycle.
	StallLoadUse

	// StallLoadBranch is a load in EX feeding a branch in ID. Two stall
	// cycles, because the branch resolves in decode and the load's value
	// only becomes forwardable after its memory cycle.
	StallLoadBranch

	// StallArithBranch is an arithmetic result in EX feeding a branch in
	// ID. One stall cycle.
	StallArithBranch
)

var stallNames = map[StallKind]string{
	StallNone:        "NONE",
	StallLoadUse:     "LOAD-USE",
	StallLoadBranch:  "LOAD-BRANCH",
	StallArithBranch: "ARITH-BRANCH",
}

// String returns the stall kind name.
func (k StallKind) String() string {
	if name, ok := stallNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// HazardResult is the hazard unit's decision for one cycle.
type HazardResult struct {
	// Stall is the hazard requiring a bubble this cycle, if any.
	Stall StallKind

	// CountsAsLoadStall marks the cycles that increment the load-stall
	// statistic. A two-cycle load-branch stall counts once, on its first
	// cycle; an arith-branch stall never counts.
	CountsAsLoadStall bool
}

// HazardUnit detects data hazards between the decode and execute stages.
//
// Its only state is the flag carrying a load-branch stall into its second
// cycle.
type HazardUnit struct {
	loadBranchPending bool
}

// NewHazardUnit creates a hazard unit.
func NewHazardUnit() *HazardUnit {
	return &HazardUnit{}
}

// Reset clears any pending stall carry.
func (h *HazardUnit) Reset() {
	h.loadBranchPending = false
}

// Detect decides whether the instruction in ID must stall behind the
// instruction in EX. Bubbles and squashed records never raise hazards.
//
// Priority when several conditions hold: load-use, then load-branch, then
// arith-branch.
func (h *HazardUnit) Detect(id, ex InstState) HazardResult {
	if h.loadBranchPending {
		// Second cycle of a load-branch stall, already counted.
		h.loadBranchPending = false
		return HazardResult{Stall: StallLoadBranch}
	}

	if !id.Real() || id.Inst == nil || !ex.Real() || ex.Inst == nil {
		return HazardResult{}
	}

	rs1Match := id.Inst.ReadsRs1 && ex.Inst.WritesRd && id.Inst.Rs1 == ex.Inst.Rd
	rs2Match := id.Inst.ReadsRs2 && ex.Inst.WritesRd && id.Inst.Rs2 == ex.Inst.Rd
	exLoad := ex.Inst.ReadsMem && ex.Inst.WritesRd

	if exLoad && !id.Inst.IsBranch {
		// A store's rs2 is not needed until MEM, one cycle after the
		// load's value is forwardable, so it does not stall.
		rs2Needed := rs2Match && !id.Inst.WritesMem
		if rs1Match || rs2Needed {
			return HazardResult{Stall: StallLoadUse, CountsAsLoadStall: true}
		}
	}

	if exLoad && id.Inst.IsBranch && (rs1Match || rs2Match) {
		h.loadBranchPending = true
		return HazardResult{Stall: StallLoadBranch, CountsAsLoadStall: true}
	}

	if ex.Inst.DoesArith && id.Inst.IsBranch && (rs1Match || rs2Match) {
		return HazardResult{Stall: StallArithBranch}
	}

	return HazardResult{}
}

// ForwardOperands replaces the record's operand values with results from
// the two instructions ahead of it. The younger producer (EX last cycle)
// wins over the older one (MEM last cycle). Register zero is never
// forwarded: producers writing x0 have WritesRd false.
func ForwardOperands(rec, exPrev, memPrev InstState) InstState {
	if !rec.Real() || rec.Inst == nil {
		return rec
	}

	if rec.Inst.ReadsRs1 {
		if v, ok := forwardedValue(rec.Inst.Rs1, exPrev, memPrev); ok {
			rec.Op1Val = v
		}
	}
	if rec.Inst.ReadsRs2 {
		if v, ok := forwardedValue(rec.Inst.Rs2, exPrev, memPrev); ok {
			rec.Op2Val = v
		}
	}
	return rec
}

func forwardedValue(rs uint8, exPrev, memPrev InstState) (uint32, bool) {
	if exPrev.Real() && exPrev.Inst != nil &&
		exPrev.Inst.DoesArith && exPrev.Inst.WritesRd && exPrev.Inst.Rd == rs {
		return exPrev.ArithResult, true
	}

	if memPrev.Real() && memPrev.Inst != nil &&
		memPrev.Inst.WritesRd && memPrev.Inst.Rd == rs {
		if memPrev.Inst.ReadsMem {
			return memPrev.MemResult, true
		}
		if memPrev.Inst.DoesArith {
			return memPrev.ArithResult, true
		}
	}

	return 0, false
}

// ForwardStoreData replaces a store's data operand with the value of the
// load retiring this cycle. A load followed immediately by a store of the
// loaded value needs this path: the load's value is only available once it
// reaches writeback, which is exactly when the store is in MEM. Only loads
// qualify; an arithmetic producer this old was already forwarded when the
// store left decode.
func ForwardStoreData(rec, wb InstState) InstState {
	if !rec.Real() || rec.Inst == nil || !rec.Inst.WritesMem {
		return rec
	}
	if !wb.Real() || wb.Inst == nil || !wb.Inst.ReadsMem || !wb.Inst.WritesRd {
		return rec
	}
	if wb.Inst.Rd != rec.Inst.Rs2 {
		return rec
	}

	rec.Op2Val = wb.MemResult
	return rec
}
