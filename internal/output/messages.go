package output

// Messages holds the user-facing strings for one command's lifecycle.
type Messages struct {
	Start   string
	Success string
	Failure string
	Rebuild string
}

// TransformMessages returns the messages for the transform command.
func TransformMessages(witty bool) Messages {
	if witty {
		return Messages{
			Start:   "Don't Panic, Too late",
			Success: "Generated Mostly Harmless JS files",
			Failure: "What the photon did you just write?",
			Rebuild: "Detected changes, rebuilding...",
		}
	}
	return Messages{
		Start:   "Transformation started!",
		Success: "Transformation completed!",
		Failure: "Transformation failed!",
		Rebuild: "Detected changes, rebuilding...",
	}
}

// RenameMessages returns the messages for the rename-to-jsx command.
func RenameMessages(witty bool) Messages {
	m := TransformMessages(witty)
	if witty {
		m.Success = "Generated Mostly Harmless JSX files"
	} else {
		m.Success = "Renaming completed!"
		m.Start = "Renaming files to JSX..."
	}
	return m
}
