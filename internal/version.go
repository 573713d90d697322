package internal

// Below are the metadata which will be embedded as part of headers in every
// RPC call made by this client to the server. Updates here accompany a
// major feature or behavior change.

// SDKVersion is a semver that represents the version of this client
// library. This represents API changes visible to library consumers, i.e.
// developers that are writing workflows, so every API change that can
// affect them has to change this number.
// Format: MAJOR.MINOR.PATCH
const SDKVersion = "0.20.0"

// SDKName is reported alongside SDKVersion in RPC headers and in workflow
// task completion metadata when it changes run-over-run.
const SDKName = "flowcore-go"

// SDKFeatureVersion is a semver that represents the feature set of this
// client library, used for capability checks on the server for backward
// compatibility.
// Format: MAJOR.MINOR.PATCH
const SDKFeatureVersion = "0.20.0"
