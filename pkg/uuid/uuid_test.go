// Copyright (c) 2026 Spotex CMS. All rights reserved.
// Author: Alessio Quagliara

package uuid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AlessioQuagliara/Spotex-CMS-sub001/pkg/uuid"
)

func TestNew_IsTimeOrderedV7(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	assert.True(t, uuid.Valid(first))
	assert.Equal(t, byte('7'), first[14])
	assert.NotEqual(t, first, second)
}

func TestValid(t *testing.T) {
	assert.False(t, uuid.Valid("not-a-uuid"))
	assert.False(t, uuid.Valid(""))
	assert.True(t, uuid.Valid("0190f5a2-7c1e-7b3a-9f00-0123456789ab"))
}
