package ferr

import (
	"errors"
	"fmt"
	"reflect"
)

// 过滤条件翻译阶段的错误
var (
	ErrUnsupportedNode  = errors.New("docstore: unsupported expression node")
	ErrUnsupportedValue = errors.New("docstore: unsupported comparison value")
	ErrNotImplemented   = errors.New("docstore: method call is not implemented")
	ErrUnmappedType     = errors.New("docstore: no known postgresql cast for member type")
)

// 批处理与连接相关的错误
var (
	ErrNilVersionTracker = errors.New("docstore: version tracker must not be nil")
	ErrEmptyFunctionName = errors.New("docstore: function name must not be empty")
	ErrConnectionClosed  = errors.New("docstore: connection is already closed")
	ErrInvalidConnection = errors.New("docstore: invalid database connection")
	ErrPointerOnly       = errors.New("docstore: only supports structs or pointers to structs, e.g., *User")
	ErrNoRows            = errors.New("docstore: no rows returned")
)

func ErrUnsupportedNodeOf(node any) error {
	return fmt.Errorf("%w: %T", ErrUnsupportedNode, node)
}

func ErrUnsupportedNegation(node any) error {
	return fmt.Errorf("%w: negation of %T", ErrUnsupportedNode, node)
}

func ErrUnsupportedValueOf(node any) error {
	return fmt.Errorf("%w: right operand must be a constant, got %T", ErrUnsupportedValue, node)
}

func ErrMethodNotImplemented(method string) error {
	return fmt.Errorf("%w: %s", ErrNotImplemented, method)
}

func ErrUnmappedTypeOf(typ reflect.Type) error {
	return fmt.Errorf("%w: %v", ErrUnmappedType, typ)
}

func ErrInvalidBatchSize(size int) error {
	return fmt.Errorf("docstore: invalid update batch size %d, must be positive", size)
}

func ErrInvalidDialect(name string) error {
	return fmt.Errorf("docstore: invalid dialect: %s", name)
}

func ErrInvalidMember(typ reflect.Type, name string) error {
	return fmt.Errorf("docstore: type %v has no member %s", typ, name)
}

func ErrMissingIdentity(typ reflect.Type) error {
	return fmt.Errorf("docstore: document type %v has no identity member", typ)
}

func ErrCallbackPanic(v any) error {
	return fmt.Errorf("docstore: callback panicked: %v", v)
}

func ErrCreateConnectionFailed(err error) error {
	return fmt.Errorf("docstore: failed to create database connection: %w", err)
}
