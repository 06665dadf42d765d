package docstore

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// StorageOperation 可加入批处理的存储操作
// AddParameters 在操作加入命令前调用，用于准备参数
type StorageOperation interface {
	Call
	AddParameters(batch *BatchCommand) error
}

// versionedOperation 需要版本记录的操作，未指定时使用批处理的记录
type versionedOperation interface {
	useVersions(v *VersionTracker)
}

// serializeDocument 使用命令借出的缓冲区序列化文档
// 绑定的是字符串副本，缓冲区归还后命令仍可重复编译
func serializeDocument(batch *BatchCommand, doc any) (string, error) {
	w := batch.Writer()
	if err := batch.Serializer().ToJSON(w, doc); err != nil {
		return "", err
	}
	return strings.TrimRight(w.String(), "\n"), nil
}

// Insert 插入新文档
type Insert struct {
	Mapping  *DocumentMapping
	Document any
	Version  uuid.UUID

	id   any
	json string
}

func (i *Insert) AddParameters(batch *BatchCommand) error {
	id, err := i.Mapping.Identity(i.Document)
	if err != nil {
		return err
	}
	if i.Version == uuid.Nil {
		i.Version = uuid.New()
	}
	data, err := serializeDocument(batch, i.Document)
	if err != nil {
		return err
	}
	i.id, i.json = id, data
	return nil
}

func (i *Insert) Build(builder *strings.Builder, args *[]any) {
	builder.WriteString("insert into ")
	builder.WriteString(i.Mapping.QualifiedTableName())
	builder.WriteString(" (id, data, mt_version) values (?, ?, ?)")
	*args = append(*args, i.id, i.json, i.Version)
}

func (i *Insert) NoDataReturned() {}

// Update 覆盖已有文档
type Update struct {
	Mapping  *DocumentMapping
	Document any
	Version  uuid.UUID

	id   any
	json string
}

func (u *Update) AddParameters(batch *BatchCommand) error {
	id, err := u.Mapping.Identity(u.Document)
	if err != nil {
		return err
	}
	if u.Version == uuid.Nil {
		u.Version = uuid.New()
	}
	data, err := serializeDocument(batch, u.Document)
	if err != nil {
		return err
	}
	u.id, u.json = id, data
	return nil
}

func (u *Update) Build(builder *strings.Builder, args *[]any) {
	builder.WriteString("update ")
	builder.WriteString(u.Mapping.QualifiedTableName())
	builder.WriteString(" set data = ?, mt_version = ? where id = ?")
	*args = append(*args, u.json, u.Version, u.id)
}

func (u *Update) NoDataReturned() {}

// OptimisticUpdate 带版本校验的更新
// 版本不匹配时没有返回行，回调报告 ConcurrencyError
type OptimisticUpdate struct {
	Mapping         *DocumentMapping
	Document        any
	ExpectedVersion uuid.UUID
	Version         uuid.UUID
	Versions        *VersionTracker

	id   any
	json string
}

func (u *OptimisticUpdate) AddParameters(batch *BatchCommand) error {
	id, err := u.Mapping.Identity(u.Document)
	if err != nil {
		return err
	}
	if u.Version == uuid.Nil {
		u.Version = uuid.New()
	}
	data, err := serializeDocument(batch, u.Document)
	if err != nil {
		return err
	}
	if u.ExpectedVersion == uuid.Nil && u.Versions != nil {
		u.ExpectedVersion, _ = u.Versions.Version(u.Mapping.DocumentType, id)
	}
	u.id, u.json = id, data
	return nil
}

func (u *OptimisticUpdate) useVersions(v *VersionTracker) {
	if u.Versions == nil {
		u.Versions = v
	}
}

func (u *OptimisticUpdate) Build(builder *strings.Builder, args *[]any) {
	builder.WriteString("update ")
	builder.WriteString(u.Mapping.QualifiedTableName())
	builder.WriteString(" set data = ?, mt_version = ? where id = ? and mt_version = ? returning mt_version")
	*args = append(*args, u.json, u.Version, u.id, u.ExpectedVersion)
}

func (u *OptimisticUpdate) Postprocess(ctx context.Context, rs ResultSet) error {
	if !rs.Next() {
		if err := rs.Err(); err != nil {
			return err
		}
		return &ConcurrencyError{DocumentType: u.Mapping.DocumentType, ID: u.id}
	}
	var version uuid.UUID
	if err := rs.Scan(&version); err != nil {
		return err
	}
	if u.Versions != nil {
		u.Versions.Store(u.Mapping.DocumentType, u.id, version)
	}
	return nil
}

// Upsert 通过存储过程插入或更新文档，并记录新版本
type Upsert struct {
	Mapping  *DocumentMapping
	Document any
	Version  uuid.UUID
	Versions *VersionTracker

	id   any
	call *SprocCall
}

func (u *Upsert) AddParameters(batch *BatchCommand) error {
	id, err := u.Mapping.Identity(u.Document)
	if err != nil {
		return err
	}
	if u.Version == uuid.Nil {
		u.Version = uuid.New()
	}
	u.id = id
	u.call = newSprocCall(batch, u.Mapping.UpsertFunction())
	if _, err = u.call.JSON("doc", u.Document); err != nil {
		return err
	}
	u.call.With("docid", id).With("docversion", u.Version)
	return nil
}

func (u *Upsert) useVersions(v *VersionTracker) {
	if u.Versions == nil {
		u.Versions = v
	}
}

func (u *Upsert) Build(builder *strings.Builder, args *[]any) {
	u.call.Build(builder, args)
}

func (u *Upsert) Postprocess(ctx context.Context, rs ResultSet) error {
	if !rs.Next() {
		return rs.Err()
	}
	var version uuid.UUID
	if err := rs.Scan(&version); err != nil {
		return err
	}
	if u.Versions != nil {
		u.Versions.Store(u.Mapping.DocumentType, u.id, version)
	}
	return nil
}

// Delete 按主键删除
type Delete struct {
	Mapping *DocumentMapping
	ID      any
}

func (d *Delete) AddParameters(*BatchCommand) error {
	return nil
}

func (d *Delete) Build(builder *strings.Builder, args *[]any) {
	builder.WriteString("delete from ")
	builder.WriteString(d.Mapping.QualifiedTableName())
	builder.WriteString(" where id = ?")
	*args = append(*args, d.ID)
}

func (d *Delete) NoDataReturned() {}

// DeleteWhere 按过滤条件删除
type DeleteWhere struct {
	Mapping *DocumentMapping
	Where   Fragment
}

func (d *DeleteWhere) AddParameters(*BatchCommand) error {
	return nil
}

func (d *DeleteWhere) Build(builder *strings.Builder, args *[]any) {
	builder.WriteString("delete from ")
	builder.WriteString(d.Mapping.QualifiedTableName())
	if d.Where != nil {
		builder.WriteString(" where ")
		d.Where.Build(builder, args)
	}
}

func (d *DeleteWhere) NoDataReturned() {}
