// Package data generates data.h and data.cpp, the C++ view of a compiled
// model: constants shared with the runtime, the operator tables in
// runtime table order, and each section as a byte array.
package data

import (
	"strings"

	"nvmcc/internal/compile/author/cgen"
	"nvmcc/internal/compile/author/hc"
	"nvmcc/internal/compile/plan"
	"nvmcc/internal/raw"
)

// Var is one section emitted as a byte array.
type Var struct {
	Name string
	Data []byte
}

const (
	progressEmbedding = "WITH_PROGRESS_EMBEDDING"
	needDataVars      = "NEED_DATA_VARS"
	dataSection       = "DATA_SECTION"
	firstSection      = ".nvm"
	otherSection      = ".nvm2"
	firstVar          = "parameters_data"
	lenSuffix         = "_LEN"
)

var (
	modelT    cgen.Gen = cgen.StructTag("Model")
	paramInfo cgen.Gen = cgen.StructTag("ParameterInfo")
	model     cgen.Gen = cgen.Vb("model")
	input     cgen.Gen = cgen.Vb("input")
	output    cgen.Gen = cgen.Vb("output")
	flags     cgen.Gen = cgen.Vb("flags")
)

func opParams() cgen.Gen {
	return cgen.CommaSpaced{
		cgen.Param{Type: modelT, What: cgen.Ptr{What: model}},
		cgen.Param{Type: paramInfo, What: cgen.Elem{Arr: cgen.Ptr{What: input}}},
		cgen.Param{Type: paramInfo, What: cgen.Ptr{What: output}},
		cgen.Param{Type: cgen.Uint16T, What: flags},
	}
}

func allocName(op raw.OpType) string  { return "alloc_" + strings.ToLower(op.String()) }
func handleName(op raw.OpType) string { return "handle_" + strings.ToLower(op.String()) }

type state struct {
	pl   *plan.Plan
	vars []Var
	hc   hc.Sections
}

// Implement returns the header and the source for pl. Every element of
// vars must already be final.
func Implement(pl *plan.Plan, vars []Var) (h, c []byte) {
	st := &state{pl: pl, vars: vars}
	st.preamble()
	st.consts()
	st.ops()
	st.flags()
	st.data()
	return st.hc.Join()
}

func (st *state) preamble() {
	note := cgen.Comment{"Generated by nvmcc. Do not edit."}
	st.hc.Append(hc.HPragmaOnce, cgen.PragmaOnce, cgen.Newline)
	st.hc.Append(hc.HComment, note, cgen.Newline)
	st.hc.Append(hc.HInclude,
		cgen.Preprocessor{Head: cgen.Include, Tail: cgen.AngleBracketed("stdint.h")},
		cgen.Newline,
	)
	st.hc.Append(hc.HStructs,
		cgen.StructDecl("ParameterInfo"),
		cgen.StructDecl("Model"),
		cgen.Newline,
	)
	st.hc.Append(hc.CComment, note, cgen.Newline)
	for _, inc := range []string{"data.h", "cnn_common.h", "platform.h"} {
		st.hc.Append(hc.CInclude, cgen.Preprocessor{Head: cgen.Include, Tail: cgen.DoubleQuoted(inc)})
	}
	st.hc.Append(hc.CInclude, cgen.Newline)
}

func (st *state) define(to hc.Section, name string, val int) {
	st.hc.Append(to, cgen.Macro{Name: name, Val: cgen.IntLit(val)})
}

func (st *state) consts() {
	cfg := st.pl.Config
	st.define(hc.HConsts, "COUNTERS_LEN", plan.CountersLen)
	st.define(hc.HConsts, "MAX_OUTPUT_ID_INVALID", plan.MaxOutputIDInvalid)
	st.define(hc.HConsts, "NODE_NAME_LEN", plan.NodeNameLen)
	st.define(hc.HConsts, "SLOT_INTERMEDIATE_VALUES", plan.SlotIntermediateValues)
	st.define(hc.HConsts, "SLOT_PARAMETERS", plan.SlotParameters)
	st.define(hc.HConsts, "SLOT_PARAMETERS2", plan.SlotParameters2)
	st.define(hc.HConsts, "SLOT_TEST_SET", plan.SlotTestSet)
	st.define(hc.HConsts, "SCALE", cfg.Scale)
	st.define(hc.HConsts, "NUM_SLOTS", cfg.NumSlots)
	st.define(hc.HConsts, "INTERMEDIATE_VALUES_SIZE", cfg.IntermediateValuesSize)
	st.define(hc.HConsts, "NVM_SIZE", cfg.NVMSize)
	st.define(hc.HConsts, "N_SAMPLES", cfg.Samples)
	st.define(hc.HConsts, "N_ALL_SAMPLES", cfg.AllSamples)
	st.hc.Append(hc.HConsts, cgen.Newline)
	if !cfg.WithoutProgressEmbedding {
		st.hc.Append(hc.HProgress, cgen.Macro{Name: progressEmbedding}, cgen.Newline)
	}
}

func (st *state) ops() {
	var (
		expected   = make(cgen.CommaSpaced, raw.OpCount)
		handlers   = make(cgen.CommaLines, raw.OpCount)
		allocators = make(cgen.CommaLines, raw.OpCount)
	)
	for op := raw.OpType(0); op < raw.OpCount; op++ {
		st.define(hc.HOps, op.String(), int(op))
		st.hc.Append(hc.HProtos,
			cgen.FuncDecl{ReturnType: cgen.Void, Name: allocName(op), Params: opParams()},
			cgen.FuncDecl{ReturnType: cgen.Void, Name: handleName(op), Params: opParams()},
		)
		expected[op] = cgen.IntLit(raw.Ops[op].ExpectedInputs)
		handlers[op] = cgen.Vb(handleName(op))
		allocators[op] = cgen.Vb(allocName(op))
		if raw.Ops[op].Inplace {
			st.hc.Append(hc.CInplace, st.inplace(op))
		}
	}
	st.hc.Append(hc.HOps, cgen.Newline)
	st.hc.Append(hc.HProtos, cgen.Newline)
	st.hc.Append(hc.CExpected, cgen.Stmts{cgen.Var{
		Type: cgen.Uint8T,
		What: cgen.Elem{Arr: cgen.Vb("expected_inputs_len")},
		Init: cgen.Brace{Inner: expected},
	}}, cgen.Newline)
	st.hc.Append(hc.CHandlers, cgen.Stmts{cgen.Var{
		Type: cgen.Vb("handler"),
		What: cgen.Elem{Arr: cgen.Vb("handlers")},
		Init: cgen.Block{Inner: handlers},
	}})
	st.hc.Append(hc.CAllocators, cgen.Stmts{cgen.Var{
		Type: cgen.Vb("allocator"),
		What: cgen.Elem{Arr: cgen.Vb("allocators")},
		Init: cgen.Block{Inner: allocators},
	}})
}

// inplace is the allocator of an operator that writes over its input: the
// output slot is claimed for the current layer.
func (st *state) inplace(op raw.OpType) cgen.Gen {
	return cgen.FuncDef{
		ReturnType: cgen.Void,
		Name:       allocName(op),
		Params:     opParams(),
		Body: cgen.Stmts{cgen.Assign{
			Expr1: cgen.Elem{
				Arr: cgen.Arrow{Expr: model, Name: "slot_users"},
				Idx: cgen.Arrow{Expr: output, Name: "slot"},
			},
			Expr2: cgen.Arrow{Expr: model, Name: "layer_idx"},
		}},
	}
}

func (st *state) flags() {
	for i, name := range plan.GenericStrings {
		st.define(hc.HFlags, name, plan.GenericBit(i))
	}
	st.hc.Append(hc.HFlags, cgen.Newline)
}

func (st *state) data() {
	for _, v := range st.vars {
		ptr := cgen.Ptr{What: cgen.Vb(v.Name)}
		st.hc.Append(hc.HData,
			cgen.Stmts{cgen.Extern{Tail: cgen.Var{Type: cgen.Uint8T, What: ptr}}},
			cgen.Macro{Name: strings.ToUpper(v.Name) + lenSuffix, Val: cgen.IntLit(len(v.Data))},
			cgen.Newline,
		)
		section := otherSection
		if v.Name == firstVar {
			section = firstSection
		}
		store := cgen.Vb("_" + v.Name)
		st.hc.Append(hc.CData,
			cgen.Preprocessor{Head: cgen.Ifdef, Tail: cgen.Vb(needDataVars)},
			cgen.Preprocessor{Head: cgen.Pragma, Tail: cgen.Call{
				Func: cgen.Vb(dataSection),
				Args: cgen.DoubleQuoted(section),
			}},
			cgen.Stmts{
				cgen.Var{
					Type: cgen.Uint8T,
					What: cgen.Elem{Arr: store, Idx: cgen.IntLit(len(v.Data))},
					Init: cgen.Block{Inner: cgen.Bytes(v.Data)},
				},
				cgen.Var{Type: cgen.Uint8T, What: ptr, Init: store},
			},
			cgen.Preprocessor{Head: cgen.Endif},
			cgen.Newline,
		)
	}
}
