// quiltlib builds the core as a C shared library. Every Quilt_* function
// takes an opaque handle plus string payloads and returns an owned C
// string the caller must release with Quilt_FreeString.
//
// Build with: go build -buildmode=c-shared -o libquilt.so ./cmd/quiltlib
package main

/*
#include <stdlib.h>
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/quiltdb/quilt/internal/bindings"
)

//export Quilt_New
func Quilt_New(configJSON *C.char) C.uint64_t {
	return C.uint64_t(bindings.New(cGoString(configJSON)))
}

//export Quilt_Destroy
func Quilt_Destroy(handle C.uint64_t) {
	bindings.Destroy(uint64(handle))
}

//export Quilt_Open
func Quilt_Open(handle C.uint64_t) *C.char {
	return cString(bindings.Open(uint64(handle)))
}

//export Quilt_Close
func Quilt_Close(handle C.uint64_t) *C.char {
	return cString(bindings.Close(uint64(handle)))
}

//export Quilt_InitKeys
func Quilt_InitKeys(handle C.uint64_t, passphrase *C.char) *C.char {
	return cString(bindings.InitKeys(uint64(handle), cGoString(passphrase)))
}

//export Quilt_UnlockKeys
func Quilt_UnlockKeys(handle C.uint64_t, passphrase *C.char) *C.char {
	return cString(bindings.UnlockKeys(uint64(handle), cGoString(passphrase)))
}

//export Quilt_ListTasks
func Quilt_ListTasks(handle C.uint64_t, filterJSON *C.char) *C.char {
	return cString(bindings.ListTasks(uint64(handle), cGoString(filterJSON)))
}

//export Quilt_CreateTask
func Quilt_CreateTask(handle C.uint64_t, taskJSON *C.char) *C.char {
	return cString(bindings.CreateTask(uint64(handle), cGoString(taskJSON)))
}

//export Quilt_UpdateTask
func Quilt_UpdateTask(handle C.uint64_t, taskJSON *C.char) *C.char {
	return cString(bindings.UpdateTask(uint64(handle), cGoString(taskJSON)))
}

//export Quilt_DeleteTask
func Quilt_DeleteTask(handle C.uint64_t, taskID *C.char) *C.char {
	return cString(bindings.DeleteTask(uint64(handle), cGoString(taskID)))
}

//export Quilt_ReorderTasks
func Quilt_ReorderTasks(handle C.uint64_t, reorderJSON *C.char) *C.char {
	return cString(bindings.ReorderTasks(uint64(handle), cGoString(reorderJSON)))
}

//export Quilt_SetDueDate
func Quilt_SetDueDate(handle C.uint64_t, taskID *C.char, dueDate *C.char) *C.char {
	return cString(bindings.SetDueDate(uint64(handle), cGoString(taskID), cGoString(dueDate)))
}

//export Quilt_SetCompleted
func Quilt_SetCompleted(handle C.uint64_t, taskID *C.char, completed C.int) *C.char {
	return cString(bindings.SetCompleted(uint64(handle), cGoString(taskID), completed != 0))
}

//export Quilt_ExportEvents
func Quilt_ExportEvents(handle C.uint64_t, sinceSeq C.longlong) *C.char {
	return cString(bindings.ExportEvents(uint64(handle), int64(sinceSeq)))
}

//export Quilt_ImportEvents
func Quilt_ImportEvents(handle C.uint64_t, eventsJSON *C.char) *C.char {
	return cString(bindings.ImportEvents(uint64(handle), cGoString(eventsJSON)))
}

//export Quilt_GetSyncState
func Quilt_GetSyncState(handle C.uint64_t) *C.char {
	return cString(bindings.GetSyncState(uint64(handle)))
}

//export Quilt_DebugDecryptEvent
func Quilt_DebugDecryptEvent(handle C.uint64_t, payloadBase64 *C.char) *C.char {
	return cString(bindings.DebugDecryptEvent(uint64(handle), cGoString(payloadBase64)))
}

//export Quilt_FreeString
func Quilt_FreeString(str *C.char) {
	if str != nil {
		C.free(unsafe.Pointer(str))
	}
}

func cGoString(value *C.char) string {
	if value == nil {
		return ""
	}
	return C.GoString(value)
}

func cString(value string) *C.char {
	return C.CString(value)
}

func main() {}
