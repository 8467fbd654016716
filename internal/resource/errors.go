package resource

import "errors"

var (
	// ErrFileOpen: the backing file is missing or unreadable.
	ErrFileOpen = errors.New("cannot open resource file")
	// ErrParse: the payload could not be deserialized.
	ErrParse = errors.New("cannot parse resource")
	// ErrDependencyFailed: a direct or transitive dependency failed to load.
	ErrDependencyFailed = errors.New("dependency failed to load")
	// ErrDependencyCycle: loading the dependency would make the resource wait on itself.
	ErrDependencyCycle = errors.New("dependency cycle")
	// ErrUnknownExtension: no type is registered for the path's extension.
	ErrUnknownExtension = errors.New("no resource type registered for extension")
	// ErrTypeMismatch: the extension belongs to a different type than requested.
	ErrTypeMismatch = errors.New("extension registered for a different type")
	// ErrNotCreatable: Create was called for a type that cannot live in memory only.
	ErrNotCreatable = errors.New("resource type is not creatable")
	// ErrAlreadyExists: Create was called for a path that already has a resource.
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrDuplicateExtension: two types claim the same extension. Fatal at startup.
	ErrDuplicateExtension = errors.New("extension registered by more than one type")
	// ErrEmptyPath: the path normalizes to nothing.
	ErrEmptyPath = errors.New("empty resource path")
	// ErrClosed: the manager has been closed.
	ErrClosed = errors.New("resource manager closed")
)
