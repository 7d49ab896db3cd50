/*
 * Copyright (c) 2021 yedf. All rights reserved.
 * Use of this source code is governed by a BSD-style
 * license that can be found in the LICENSE file.
 */

package common

import "time"

// ModelBase model base for gorm to provide base fields
type ModelBase struct {
	ID         uint64     `json:"id" gorm:"primaryKey;autoIncrement"`
	CreateTime *time.Time `json:"create_time" gorm:"autoCreateTime"`
	UpdateTime *time.Time `json:"update_time" gorm:"autoUpdateTime"`
}

