package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromHTML_Microdata(t *testing.T) {
	html := `<html><head><title>ignored | Site</title></head><body>
<div itemscope itemtype="https://schema.org/Dentist">
  <h1 itemprop="name">山田歯科クリニック</h1>
  <div itemprop="address">東京都渋谷区 神宮前1-2-3</div>
  <span itemprop="telephone">03-1234-5678</span>
</div></body></html>`

	d, err := FromHTML(html, "Site")
	require.NoError(t, err)
	require.True(t, d.Complete())
	assert.Equal(t, "山田歯科クリニック", *d.Name)
	assert.Equal(t, "東京都渋谷区神宮前1-2-3", *d.Address)
	assert.Equal(t, "03-1234-5678", *d.Phone)
	assert.Equal(t, 1.0, d.Confidence)
}

func TestFromHTML_FreeText(t *testing.T) {
	html := `<html><head><title>山田歯科クリニック｜歯科タウン</title></head><body>
<nav>東京都港区芝公園9-9-9 03-9999-9999</nav>
<div class="clinic-info"><p>住所 東京都渋谷区神宮前１丁目２番３号</p><p>TEL ０３-１２３４-５６７８</p></div>
</body></html>`

	d, err := FromHTML(html, "歯科タウン")
	require.NoError(t, err)
	require.NotNil(t, d.Name)
	assert.Equal(t, "山田歯科クリニック", *d.Name)
	require.NotNil(t, d.Address)
	assert.Equal(t, "東京都渋谷区神宮前1丁目2番3号", *d.Address)
	require.NotNil(t, d.Phone)
	assert.Equal(t, "03-1234-5678", *d.Phone)
}

func TestFromHTML_NothingFound(t *testing.T) {
	d, err := FromHTML(`<html><body><p>no listing</p></body></html>`, "")
	require.NoError(t, err)
	assert.Nil(t, d.Name)
	assert.Nil(t, d.Address)
	assert.Nil(t, d.Phone)
	assert.Equal(t, 0.0, d.Confidence)
}
