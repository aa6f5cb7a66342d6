package store

// 打包结果的 SQLite 存储，场值计算可直接加载历史批次

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"blastfield/packer"
)

type DB struct {
	conn *sqlx.DB
}

type BatchInfo struct {
	ID          string `db:"id" json:"id"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	Holes       int    `db:"holes" json:"holes"`
	MaxElements int    `db:"max_elements" json:"max_elements"`
}

type holeRow struct {
	Row    int    `db:"hole_row"`
	HoleID string `db:"hole_id"`
}

type cellRow struct {
	Row     int     `db:"hole_row"`
	Element int     `db:"element"`
	Em      float64 `db:"em"`
	DetTime float64 `db:"det_time"`
}

// 打开数据库，不存在时创建
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "open db")
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "migrate")
	}
	return db, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS batches (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		holes INTEGER NOT NULL,
		max_elements INTEGER NOT NULL,
		geometry_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS batch_holes (
		batch_id TEXT NOT NULL,
		hole_row INTEGER NOT NULL,
		hole_id TEXT NOT NULL,
		PRIMARY KEY (batch_id, hole_row)
	);

	CREATE TABLE IF NOT EXISTS cells (
		batch_id TEXT NOT NULL,
		hole_row INTEGER NOT NULL,
		element INTEGER NOT NULL,
		em REAL NOT NULL,
		det_time REAL NOT NULL,
		PRIMARY KEY (batch_id, hole_row, element)
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// 保存一个批次，返回批次 id，空单元不写入
func (db *DB) SaveBatch(buf *packer.Buffer, geometry []packer.Geometry) (string, error) {
	geometryJSON, err := json.Marshal(geometry)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()
	tx, err := db.conn.Beginx()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO batches (id, created_at, holes, max_elements, geometry_json) VALUES (?, ?, ?, ?, ?)`,
		id, time.Now().Unix(), buf.Holes, buf.MaxElements, string(geometryJSON)); err != nil {
		return "", errors.Wrap(err, "insert batch")
	}
	for h, holeID := range buf.HoleIDs {
		if _, err := tx.Exec(`INSERT INTO batch_holes (batch_id, hole_row, hole_id) VALUES (?, ?, ?)`, id, h, holeID); err != nil {
			return "", errors.Wrap(err, "insert hole")
		}
	}

	stmt, err := tx.Preparex(`INSERT INTO cells (batch_id, hole_row, element, em, det_time) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	written := 0
	for h := 0; h < buf.Holes; h++ {
		for j, c := range buf.Row(h) {
			if c.IsSentinel() {
				continue
			}
			if _, err := stmt.Exec(id, h, j, c.Em, c.DetTime); err != nil {
				return "", errors.Wrap(err, "insert cell")
			}
			written++
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	log.WithFields(log.Fields{"batch": id, "holes": buf.Holes, "cells": written}).Info("保存计算结果")
	return id, nil
}

// 按 id 还原打包数据和炮孔几何
func (db *DB) LoadBatch(id string) (*packer.Buffer, []packer.Geometry, error) {
	var info struct {
		BatchInfo
		GeometryJSON string `db:"geometry_json"`
	}
	if err := db.conn.Get(&info, `SELECT id, created_at, holes, max_elements, geometry_json FROM batches WHERE id = ?`, id); err != nil {
		return nil, nil, errors.Wrapf(err, "load batch %s", id)
	}
	var geometry []packer.Geometry
	if err := json.Unmarshal([]byte(info.GeometryJSON), &geometry); err != nil {
		return nil, nil, errors.Wrap(err, "decode geometry")
	}

	var holes []holeRow
	if err := db.conn.Select(&holes, `SELECT hole_row, hole_id FROM batch_holes WHERE batch_id = ? ORDER BY hole_row`, id); err != nil {
		return nil, nil, errors.Wrap(err, "load holes")
	}
	rows := make([]packer.Row, info.Holes)
	for _, h := range holes {
		if h.Row < len(rows) {
			rows[h.Row].HoleID = h.HoleID
		}
	}
	buf := packer.Pack(rows, info.MaxElements)

	var cells []cellRow
	if err := db.conn.Select(&cells, `SELECT hole_row, element, em, det_time FROM cells WHERE batch_id = ? ORDER BY hole_row, element`, id); err != nil {
		return nil, nil, errors.Wrap(err, "load cells")
	}
	for _, c := range cells {
		if err := buf.Set(c.Row, c.Element, packer.Cell{Em: c.Em, DetTime: c.DetTime}); err != nil {
			return nil, nil, errors.Wrapf(err, "batch %s", id)
		}
	}
	return buf, geometry, nil
}

// 按保存时间倒序
func (db *DB) ListBatches() ([]BatchInfo, error) {
	var res []BatchInfo
	err := db.conn.Select(&res, `SELECT id, created_at, holes, max_elements FROM batches ORDER BY created_at DESC, id`)
	return res, err
}

func (db *DB) DeleteBatch(id string) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, q := range []string{
		`DELETE FROM cells WHERE batch_id = ?`,
		`DELETE FROM batch_holes WHERE batch_id = ?`,
		`DELETE FROM batches WHERE id = ?`,
	} {
		if _, err := tx.Exec(q, id); err != nil {
			return err
		}
	}
	return tx.Commit()
}
