package docstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/fyerfyer/fyer-docstore/docstore/internal/ferr"
)

// 翻译错误，使用 errors.Is 判断
var (
	ErrUnsupportedNode  = ferr.ErrUnsupportedNode
	ErrUnsupportedValue = ferr.ErrUnsupportedValue
	ErrNotImplemented   = ferr.ErrNotImplemented
	ErrUnmappedType     = ferr.ErrUnmappedType
)

var (
	ErrNilVersionTracker = ferr.ErrNilVersionTracker
	ErrEmptyFunctionName = ferr.ErrEmptyFunctionName
	ErrConnectionClosed  = ferr.ErrConnectionClosed
)

// AggregateError 汇总一次执行中所有回调报告的错误，顺序为命令顺序再按语句顺序
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "docstore: %d error(s) occurred while post-processing the batch", len(e.Errors))
	for _, err := range e.Errors {
		builder.WriteString("\n\t* ")
		builder.WriteString(err.Error())
	}
	return builder.String()
}

func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// ConcurrencyError 乐观并发检查失败
type ConcurrencyError struct {
	DocumentType reflect.Type
	ID           any
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("docstore: optimistic concurrency check failed for %v #%v", e.DocumentType, e.ID)
}
