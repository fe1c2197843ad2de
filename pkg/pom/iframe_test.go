// pkg/pom/iframe_test.go
package pom

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/pagecomp/internal/mocks"
	"github.com/xkilldash9x/pagecomp/pkg/driver"
)

var leafLoc = driver.CSS("#leaf")

func frameLoc(i int) driver.Locator { return driver.CSS(fmt.Sprintf("iframe#f%d", i)) }

// nestedFrames builds page > f1 > ... > fN > leaf and wires the session to
// resolve every frame and the leaf.
func nestedFrames(t *testing.T, depth int) (*mocks.MockSession, *mocks.MockElement, *Bound) {
	t.Helper()
	sess := mocks.NewMockSession()
	var parent Parent = newTestPage(t, sess)
	for i := 1; i <= depth; i++ {
		el := mocks.NewMockElement(fmt.Sprintf("f%d", i))
		onFind(&sess.Mock, frameLoc(i), el)
		sess.On("SwitchToFrame", mock.Anything, el).Return(nil)
		parent = DefineIframe(fmt.Sprintf("Frame%d", i), Locate(frameLoc(i))).Bind(parent)
	}
	leafEl := mocks.NewMockElement("leaf")
	onFind(&sess.Mock, leafLoc, leafEl)
	leaf := Define("Leaf", Locate(leafLoc), FromParent()).Bind(parent)
	return sess, leafEl, leaf
}

// expectedFrameCalls is the session call sequence for one interaction at depth n.
func expectedFrameCalls(n int) []string {
	calls := []string{"SwitchToDefaultContent"}
	for range n {
		calls = append(calls, "FindElement", "SwitchToFrame")
	}
	return append(calls, "FindElement", "SwitchToDefaultContent")
}

func TestFrameContextSequence(t *testing.T) {
	ctx := context.Background()
	for depth := 1; depth <= 3; depth++ {
		for _, fail := range []bool{false, true} {
			t.Run(fmt.Sprintf("depth=%d fail=%v", depth, fail), func(t *testing.T) {
				sess, leafEl, leaf := nestedFrames(t, depth)
				sess.On("SwitchToDefaultContent", mock.Anything).Return(nil)

				var clickErr error
				if fail {
					clickErr = errors.New("element click intercepted")
				}
				// The click must land after every frame switch and before the release.
				var callsAtClick int
				leafEl.On("Click", mock.Anything).Return(clickErr).Run(func(mock.Arguments) {
					callsAtClick = len(sess.Calls)
				})

				err := leaf.Click(ctx)
				if fail {
					require.ErrorIs(t, err, clickErr)
				} else {
					require.NoError(t, err)
				}

				want := expectedFrameCalls(depth)
				assert.Equal(t, want, methodNames(&sess.Mock))
				assert.Equal(t, len(want)-1, callsAtClick)
				sess.AssertNumberOfCalls(t, "SwitchToDefaultContent", 2)
				sess.AssertNumberOfCalls(t, "SwitchToFrame", depth)

				// Root first: frame i is resolved before frame i+1.
				for i := 1; i <= depth; i++ {
					call := sess.Calls[2*i-1]
					assert.Equal(t, frameLoc(i), call.Arguments.Get(1))
				}
			})
		}
	}
}

func TestFrameContextRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("release error is returned", func(t *testing.T) {
		sess, leafEl, leaf := nestedFrames(t, 1)
		relErr := errors.New("no such window")
		sess.On("SwitchToDefaultContent", mock.Anything).Return(nil).Once()
		sess.On("SwitchToDefaultContent", mock.Anything).Return(relErr).Once()
		leafEl.On("Text", mock.Anything).Return("hello", nil)

		_, err := leaf.Text(ctx)
		require.ErrorIs(t, err, relErr)
		assert.ErrorIs(t, err, ErrRestoreContext)
	})

	t.Run("release error joins the action error", func(t *testing.T) {
		sess, leafEl, leaf := nestedFrames(t, 1)
		relErr := errors.New("no such window")
		actErr := errors.New("element not interactable")
		sess.On("SwitchToDefaultContent", mock.Anything).Return(nil).Once()
		sess.On("SwitchToDefaultContent", mock.Anything).Return(relErr).Once()
		leafEl.On("Click", mock.Anything).Return(actErr)

		err := leaf.Click(ctx)
		require.ErrorIs(t, err, actErr)
		require.ErrorIs(t, err, relErr)
	})

	t.Run("released when a frame is missing", func(t *testing.T) {
		sess := mocks.NewMockSession()
		sess.On("SwitchToDefaultContent", mock.Anything).Return(nil)
		onMissing(&sess.Mock, frameLoc(1))
		frame := DefineIframe("Frame1", Locate(frameLoc(1))).Bind(newTestPage(t, sess))
		leaf := Define("Leaf", Locate(leafLoc)).Bind(frame)

		_, err := leaf.IsDisplayed(ctx)
		var nf *ElementNotFoundError
		require.ErrorAs(t, err, &nf)
		assert.Equal(t, "Frame1", nf.Component)
		sess.AssertNumberOfCalls(t, "SwitchToDefaultContent", 2)
		sess.AssertNotCalled(t, "SwitchToFrame", mock.Anything, mock.Anything)
	})

	t.Run("missing iframe child is not present", func(t *testing.T) {
		sess := mocks.NewMockSession()
		sess.On("SwitchToDefaultContent", mock.Anything).Return(nil)
		frameEl := mocks.NewMockElement("f1")
		onFind(&sess.Mock, frameLoc(1), frameEl)
		sess.On("SwitchToFrame", mock.Anything, frameEl).Return(nil)
		onMissing(&sess.Mock, leafLoc)
		frame := DefineIframe("Frame1", Locate(frameLoc(1))).Bind(newTestPage(t, sess))

		present, err := Define("Leaf", Locate(leafLoc)).Bind(frame).IsPresent(ctx)
		require.NoError(t, err)
		assert.False(t, present)
		sess.AssertNumberOfCalls(t, "SwitchToDefaultContent", 2)
	})

	t.Run("missing iframe child with failed release is an error", func(t *testing.T) {
		sess := mocks.NewMockSession()
		relErr := errors.New("no such window")
		sess.On("SwitchToDefaultContent", mock.Anything).Return(nil).Once()
		sess.On("SwitchToDefaultContent", mock.Anything).Return(relErr).Once()
		frameEl := mocks.NewMockElement("f1")
		onFind(&sess.Mock, frameLoc(1), frameEl)
		sess.On("SwitchToFrame", mock.Anything, frameEl).Return(nil)
		onMissing(&sess.Mock, leafLoc)
		frame := DefineIframe("Frame1", Locate(frameLoc(1))).Bind(newTestPage(t, sess))

		present, err := Define("Leaf", Locate(leafLoc)).Bind(frame).IsPresent(ctx)
		assert.False(t, present)
		require.ErrorIs(t, err, relErr)
		assert.ErrorIs(t, err, ErrRestoreContext)
	})
}

func TestNoFrameIsPassThrough(t *testing.T) {
	ctx := context.Background()
	sess := mocks.NewMockSession()
	el := mocks.NewMockElement("leaf")
	onFind(&sess.Mock, leafLoc, el)
	el.On("Click", mock.Anything).Return(nil)

	container := Define("Container").Bind(newTestPage(t, sess))
	require.NoError(t, Define("Leaf", Locate(leafLoc)).Bind(container).Click(ctx))
	assert.Equal(t, []string{"FindElement"}, methodNames(&sess.Mock))
}

func TestIframeAncestorCache(t *testing.T) {
	sess := mocks.NewMockSession()
	page := newTestPage(t, sess)
	frame := DefineIframe("Editor", Locate(frameLoc(1))).Bind(page)
	toolbar := Define("Toolbar").Bind(frame)
	button := Define("Bold", Locate(driver.CSS("button.bold"))).Bind(toolbar)

	assert.False(t, button.frame.resolved)
	assert.Same(t, frame, button.IframeAncestor())
	assert.True(t, button.frame.resolved)
	assert.Same(t, frame, button.IframeAncestor())

	// Resolved to none is cached too and distinct from unresolved.
	assert.Nil(t, frame.IframeAncestor())
	assert.True(t, frame.frame.resolved)
	assert.Nil(t, frame.frame.ancestor)
}

func TestSwitchTo(t *testing.T) {
	ctx := context.Background()
	sess := mocks.NewMockSession()
	page := newTestPage(t, sess)
	outerEl := mocks.NewMockElement("outer")
	innerEl := mocks.NewMockElement("inner")
	onFind(&sess.Mock, frameLoc(1), outerEl)
	onFind(&sess.Mock, frameLoc(2), innerEl)
	sess.On("SwitchToDefaultContent", mock.Anything).Return(nil)
	sess.On("SwitchToFrame", mock.Anything, outerEl).Return(nil).Once()
	sess.On("SwitchToFrame", mock.Anything, innerEl).Return(nil).Once()

	outer := DefineIframe("Outer", Locate(frameLoc(1))).Bind(page)
	inner := DefineIframe("Inner", Locate(frameLoc(2))).Bind(outer)

	require.NoError(t, inner.SwitchTo(ctx))
	assert.Equal(t,
		[]string{"SwitchToDefaultContent", "FindElement", "SwitchToFrame", "FindElement", "SwitchToFrame"},
		methodNames(&sess.Mock))
	assert.Same(t, innerEl, sess.Calls[4].Arguments.Get(1))

	require.NoError(t, inner.SwitchToDefaultContent(ctx))
	sess.AssertNumberOfCalls(t, "SwitchToDefaultContent", 2)

	err := Define("Plain", Locate(leafLoc)).Bind(page).SwitchTo(ctx)
	require.Error(t, err)
}
