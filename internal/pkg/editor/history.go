package editor

// State 编辑器可持久化的完整状态，草稿会话在请求之间靠它恢复编辑器
type State struct {
	Blocks    []Block   `json:"blocks"`
	Selection Selection `json:"selection"`
	Pending   *Marks    `json:"pending,omitempty"`
	Undo      [][]Block `json:"undo,omitempty"`
	Redo      [][]Block `json:"redo,omitempty"`
}

// Undo 撤销上一次编辑
func (e *Editor) Undo() bool {
	if len(e.undo) == 0 {
		return false
	}
	prev := e.undo[len(e.undo)-1]
	e.undo = e.undo[:len(e.undo)-1]
	e.redo = append(e.redo, cloneBlocks(e.doc))
	e.doc = cloneBlocks(prev)
	e.ensureBlock()
	e.moveToEnd()
	e.pending = nil
	e.emit()
	return true
}

// Redo 重做被撤销的编辑
func (e *Editor) Redo() bool {
	if len(e.redo) == 0 {
		return false
	}
	next := e.redo[len(e.redo)-1]
	e.redo = e.redo[:len(e.redo)-1]
	e.undo = append(e.undo, cloneBlocks(e.doc))
	e.doc = cloneBlocks(next)
	e.ensureBlock()
	e.moveToEnd()
	e.pending = nil
	e.emit()
	return true
}

// CanUndo 撤销栈是否非空
func (e *Editor) CanUndo() bool {
	return len(e.undo) > 0
}

// CanRedo 重做栈是否非空
func (e *Editor) CanRedo() bool {
	return len(e.redo) > 0
}

// State 导出当前状态
func (e *Editor) State() State {
	st := State{
		Blocks:    cloneBlocks(e.doc),
		Selection: e.sel,
	}
	if e.pending != nil {
		m := *e.pending
		st.Pending = &m
	}
	for _, snap := range e.undo {
		st.Undo = append(st.Undo, cloneBlocks(snap))
	}
	for _, snap := range e.redo {
		st.Redo = append(st.Redo, cloneBlocks(snap))
	}
	return st
}

// Restore 从持久化的状态重建编辑器
func Restore(st State, opts ...Option) *Editor {
	e := &Editor{
		doc:         cloneBlocks(st.Blocks),
		historySize: defaultHistorySize,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.ensureBlock()
	e.Select(st.Selection.Block, st.Selection.Start, st.Selection.End)
	if st.Pending != nil {
		m := *st.Pending
		e.pending = &m
	}

	undo := st.Undo
	if len(undo) > e.historySize {
		undo = undo[len(undo)-e.historySize:]
	}
	for _, snap := range undo {
		e.undo = append(e.undo, cloneBlocks(snap))
	}
	for _, snap := range st.Redo {
		e.redo = append(e.redo, cloneBlocks(snap))
	}
	return e
}
