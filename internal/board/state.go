package board

// ProjectName returns the project name.
func (e *Engine) ProjectName() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.projectName
}

// SetProjectName renames the project and notifies name observers when the
// name changes.
func (e *Engine) SetProjectName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name == e.projectName {
		return
	}
	e.projectName = name
	for _, fn := range e.nameObservers {
		fn(name)
	}
}

// ReplaceProjectName sets the name without notifying observers.
func (e *Engine) ReplaceProjectName(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.projectName = name
}

// IsLoading reports whether a remote load is in progress.
func (e *Engine) IsLoading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loading
}

// SetLoading marks a remote load as started or finished.
func (e *Engine) SetLoading(loading bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loading = loading
}

// LastError returns the user-visible error message, or "".
func (e *Engine) LastError() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastError
}

// SetError records msg as the user-visible error.
func (e *Engine) SetError(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastError = msg
}

// ClearError resets the user-visible error.
func (e *Engine) ClearError() {
	e.SetError("")
}
