/*
Package types defines the data shared by every state container and view.

# Study Model

Study, Series and Instance mirror the DICOM information model. A Cursor
addresses the displayed instance by its series and SOP instance UIDs, so it
stays valid when series are reordered. ImageData carries the cursor it was
decoded for and is only accepted while that cursor is current.

# Tags

Tag identifiers use the suyashkumar/dicom tag package. NewTag fills the name
and multiplicity from the standard dictionary; odd groups are private.
TagEditState records pending edits and the selection by tag.

# Connections

ScpConfig describes the local listener, PeerEndpoint a remote application
entity and WebServiceEndpoint a DICOMweb base URL. Peers and endpoints are
compared by value through Key.

# Status

LoadingState is the shared progress line. RequestRecord is one completed
outbound request; records are never modified after they are added.

Values of these types are snapshots: containers copy them on write, and
callers must not modify slices or maps they receive.
*/
package types
